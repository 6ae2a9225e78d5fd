package options

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*StoreOptions)(nil)

// StoreOptions configures the registry snapshot.
type StoreOptions struct {
	// Path of the snapshot file. The extension picks the format: .json, .yaml, .yml or .cbor.
	Path string `json:"path" mapstructure:"path"`

	// SeedExample registers the example vehicle AAA at startup.
	SeedExample bool `json:"seed-example" mapstructure:"seed-example"`

	// Watch reloads the snapshot when it is changed on disk by someone else.
	Watch bool `json:"watch" mapstructure:"watch"`

	// WatchDebounce coalesces bursts of file events into one reload.
	WatchDebounce time.Duration `json:"watch-debounce" mapstructure:"watch-debounce"`
}

// NewStoreOptions returns StoreOptions for DB.json in the working directory.
func NewStoreOptions() *StoreOptions {
	return &StoreOptions{
		Path:          "DB.json",
		SeedExample:   true,
		Watch:         false,
		WatchDebounce: 500 * time.Millisecond,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *StoreOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Path == "" {
		errs = append(errs, fmt.Errorf("--store.path is required"))
	}
	switch strings.ToLower(filepath.Ext(o.Path)) {
	case ".json", ".yaml", ".yml", ".cbor", "":
	default:
		errs = append(errs, fmt.Errorf("--store.path: unsupported snapshot format %q", filepath.Ext(o.Path)))
	}
	if o.Watch && o.WatchDebounce < 0 {
		errs = append(errs, fmt.Errorf("--store.watch-debounce must not be negative"))
	}
	return errs
}

// AddFlags adds flags for the registry snapshot to the specified FlagSet.
func (o *StoreOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Path, "store.path", o.Path, "Path of the registry snapshot (.json, .yaml, .yml or .cbor).")
	fs.BoolVar(&o.SeedExample, "store.seed-example", o.SeedExample, "Register the example vehicle AAA at startup.")
	fs.BoolVar(&o.Watch, "store.watch", o.Watch, "Reload the registry when the snapshot file changes on disk.")
	fs.DurationVar(&o.WatchDebounce, "store.watch-debounce", o.WatchDebounce, "Quiet period before a changed snapshot is reloaded.")
}
