// Package conformance wires the scenario runner to the real system: the UDisks2 system bus,
// OS probes, the account tools and privilege-drop workers.
package conformance

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"
	"k8s.io/mount-utils"

	"github.com/awslabs/udisks-conformance/pkg/account"
	"github.com/awslabs/udisks-conformance/pkg/fstab"
	"github.com/awslabs/udisks-conformance/pkg/privdrop"
	"github.com/awslabs/udisks-conformance/pkg/probe"
	"github.com/awslabs/udisks-conformance/pkg/profile"
	"github.com/awslabs/udisks-conformance/pkg/scenario"
	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

// Environment variables the configuration defaults are read from.
const (
	EnvDevice       = "UDISKS_CONFORMANCE_DEVICE"
	EnvModifySystem = "UDISKS_CONFORMANCE_MODIFY_SYSTEM"
	// EnvJenkinsHome being set also enables scenarios modifying the system, CI hosts are disposable.
	EnvJenkinsHome = "JENKINS_HOME"
)

// DefaultSettleTimeout is how long property reads wait for UDisks2 to publish an expected value.
const DefaultSettleTimeout = 5 * time.Second

// Config is the configuration of a conformance run.
type Config struct {
	Device        string
	ModifySystem  bool
	FstabPath     string
	ScratchDir    string
	ProfilesPath  string
	Only          []string
	UserName      string
	WorkerTimeout time.Duration
	SettleTimeout time.Duration
}

// DefaultConfig returns the configuration used when no flags are given,
// taking the fixture device and system modification switch from the environment.
func DefaultConfig() Config {
	return Config{
		Device:        os.Getenv(EnvDevice),
		ModifySystem:  modifySystemFromEnv(),
		FstabPath:     fstab.DefaultPath,
		ScratchDir:    os.TempDir(),
		UserName:      account.DefaultName,
		WorkerTimeout: privdrop.DefaultTimeout,
		SettleTimeout: DefaultSettleTimeout,
	}
}

func modifySystemFromEnv() bool {
	if _, ok := os.LookupEnv(EnvJenkinsHome); ok {
		return true
	}
	enabled, err := strconv.ParseBool(os.Getenv(EnvModifySystem))
	return err == nil && enabled
}

// AddFlags registers flags for all fields of `c` on `fs`, using the current values as defaults.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Device, "device", c.Device, "Block device to run scenarios against, e.g. /dev/loop7. All data on it is lost.")
	fs.BoolVar(&c.ModifySystem, "modify-system", c.ModifySystem, "Run scenarios changing fstab and creating a user account.")
	fs.StringVar(&c.FstabPath, "fstab", c.FstabPath, "Path of the fstab file UDisks2 writes mount configuration to.")
	fs.StringVar(&c.ScratchDir, "scratch-dir", c.ScratchDir, "Directory to create mount point directories in.")
	fs.StringVar(&c.ProfilesPath, "profiles", c.ProfilesPath, "JSON file (comments allowed) adding or overriding filesystem profiles.")
	fs.StringSliceVar(&c.Only, "only", c.Only, "Run only the given profiles, e.g. ext4,failsystem.")
	fs.StringVar(&c.UserName, "user", c.UserName, "Name of the unprivileged account created for user mount scenarios.")
	fs.DurationVar(&c.WorkerTimeout, "worker-timeout", c.WorkerTimeout, "Timeout for a privilege-drop worker to report its verdict.")
	fs.DurationVar(&c.SettleTimeout, "settle-timeout", c.SettleTimeout, "Timeout for UDisks2 to publish an expected property value, 0 reads once.")
}

// AddGoFlags registers the same flags as [Config.AddFlags] on a Go flag set, e.g. to configure a test binary.
func (c *Config) AddGoFlags(fs *flag.FlagSet) {
	pfs := pflag.NewFlagSet("conformance", pflag.ContinueOnError)
	c.AddFlags(pfs)
	pfs.VisitAll(func(f *pflag.Flag) {
		fs.Var(f.Value, f.Name, f.Usage)
	})
}

// Harness is a scenario runner connected to the system bus together with the resolved profiles.
type Harness struct {
	Profiles []profile.Profile
	Runner   *scenario.Runner

	client *udisks.OsClient
}

// Setup resolves the profile matrix on this host and connects to UDisks2.
// The returned harness must be closed.
func Setup(cfg Config) (*Harness, error) {
	if cfg.Device == "" {
		return nil, scenario.ErrMissingDevice
	}

	defs, err := profile.LoadDefinitions(cfg.ProfilesPath)
	if err != nil {
		return nil, err
	}
	p := probe.New(cfg.FstabPath)
	profiles, err := profile.Load(defs, p)
	if err != nil {
		return nil, err
	}
	for _, prof := range profiles {
		klog.Infof("Profile %s", prof)
	}

	client, err := udisks.Connect()
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to UDisks2: %w", err)
	}

	workerTimeout := cfg.WorkerTimeout
	env := &scenario.Env{
		Device:   cfg.Device,
		Client:   client,
		Probe:    p,
		Mounter:  mount.New(""),
		Accounts: account.NewManager(),
		Worker: func(ctx context.Context, req privdrop.Request) privdrop.Verdict {
			return privdrop.Run(ctx, req, workerTimeout)
		},
		FstabPath:     cfg.FstabPath,
		ScratchDir:    cfg.ScratchDir,
		UserName:      cfg.UserName,
		ModifySystem:  cfg.ModifySystem,
		SettleTimeout: cfg.SettleTimeout,
	}
	runner, err := scenario.NewRunner(env)
	if err != nil {
		client.Close()
		return nil, err
	}
	if len(cfg.Only) > 0 {
		runner.Only = sets.New(cfg.Only...)
	}

	return &Harness{Profiles: profiles, Runner: runner, client: client}, nil
}

// Run runs all scenarios of all selected profiles.
func (h *Harness) Run(ctx context.Context) []scenario.Result {
	return h.Runner.RunAll(ctx, h.Profiles)
}

// Close closes the bus connection.
func (h *Harness) Close() error {
	return h.client.Close()
}
