package application

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const valueNotProvided = "[not provided]"

// all variables here are provided as build-time arguments, with clear default values
var version = valueNotProvided
var gitCommit = valueNotProvided
var gitDescription = valueNotProvided
var buildDate = valueNotProvided
var platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)

type BuildInfo struct {
	Version        string `json:"version"`        // application semantic version
	GitCommit      string `json:"gitCommit"`      // git SHA at build-time
	GitDescription string `json:"gitDescription"` // indication of git tree (either "clean" or "dirty") at build-time
	BuildDate      string `json:"buildDate"`      // date of the build
	GoVersion      string `json:"goVersion"`      // go runtime version at build-time
	Compiler       string `json:"compiler"`       // compiler used at build-time
	Platform       string `json:"platform"`       // GOOS and GOARCH at build-time
}

func ReadBuildInfo() BuildInfo {
	revision, modified, hasModified := vcsSettings()

	v := version
	if v == valueNotProvided {
		if revision != "" {
			v = revision + "-adhoc-build"
		} else {
			v = valueNotProvided + " (adhoc-build)"
		}
	}

	commit := gitCommit
	if commit == valueNotProvided && revision != "" {
		commit = revision
	}

	description := gitDescription
	if description == valueNotProvided && hasModified {
		description = "clean"
		if modified {
			description = "dirty"
		}
	}

	return BuildInfo{
		Version:        v,
		GitCommit:      commit,
		GitDescription: description,
		BuildDate:      buildDate,
		GoVersion:      runtime.Version(),
		Compiler:       runtime.Compiler,
		Platform:       platform,
	}
}

func vcsSettings() (revision string, modified, found bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false, false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
			found = true
		}
	}
	return revision, modified, found
}
