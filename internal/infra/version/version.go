package version

import (
	"net/http"
	"runtime"

	"github.com/sugawarayuuta/sonnet"
)

// Set at build time with -ldflags "-X .../version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Go        string `json:"go"`
}

func Get() Info {
	return Info{Service: "arbitr", Version: Version, Commit: Commit, BuildTime: BuildTime, Go: runtime.Version()}
}

// Handler writes version info as JSON
func Handler(w http.ResponseWriter, r *http.Request) {
	b, err := sonnet.Marshal(Get())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
