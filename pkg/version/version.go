package version

// GitVersion is stamped at build time:
//
//	go build -ldflags "-X github.com/TerryYan26/RTOS/pkg/version.GitVersion=$(git describe --tags --always)"
var GitVersion = "v0.0.0-dev"
