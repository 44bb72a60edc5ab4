package utils

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// AskForConfirmationDefaultYes prompts on stdin and treats an empty
// answer as yes.
func AskForConfirmationDefaultYes(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s [Y/n]: ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal(err)
	}

	switch strings.ToLower(strings.TrimSpace(response)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// DumpOption writes opt as yaml to outputPath, creating the parent
// directory when needed. An existing file is only replaced after
// confirmation unless overwrite is set.
func DumpOption(opt interface{}, outputPath string, overwrite bool) {
	buffer, err := yaml.Marshal(opt)
	if err != nil {
		log.Errorln("cannot marshal configuration:", err)
		log.Exit(1)
	}

	parentPath := path.Dir(outputPath)
	if _, err := os.Stat(parentPath); os.IsNotExist(err) {
		if err := os.MkdirAll(parentPath, 0700); err != nil {
			log.Errorln("cannot create directory", parentPath)
			log.Exit(1)
		}
	}

	if !overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			if !AskForConfirmationDefaultYes("configuration " + outputPath + " already exists, overwrite?") {
				log.Infoln("abort")
				return
			}
		}
	}

	log.Infoln("writing configuration to", outputPath)
	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		log.Errorln("cannot open "+outputPath+", check permissions:", err)
		log.Exit(1)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	if _, err := w.Write(buffer); err != nil {
		log.Errorln("cannot write configuration:", err)
		log.Exit(1)
	}
	_ = w.Flush()
}
