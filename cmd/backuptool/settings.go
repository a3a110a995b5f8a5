package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/archivetools/archivetools/pkg/archive"
	"github.com/archivetools/archivetools/pkg/config"
	"github.com/archivetools/archivetools/pkg/schedule"
)

// settings is the fully resolved runtime configuration for one backup-tool
// invocation, built from pkg/config.Config plus the host/policy/user values
// original_source/archive/bt/config.py's Config subclass computes at
// construction time.
type settings struct {
	cfg        *config.Config
	host       string
	policy     string
	user       string
	backupDir  string
	dirs       []string
	excludes   []string
	algorithms []string
	dedup      archive.DedupPolicy
	nameTmpl   string
	schedules  []schedule.Node
}

func loadSettings(policy, user string) (*settings, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("unable to determine hostname: %w", err)
	}
	if user != "" {
		policy = "user"
	}

	cfg, err := config.Load(config.ConfigFilePath(), host, policy)
	if err != nil {
		return nil, err
	}

	dirsRaw, err := cfg.GetRequired("dirs")
	if err != nil {
		return nil, err
	}
	dirs := splitExpanded(cfg, dirsRaw, host, user)
	excludesRaw, _ := cfg.Get("excludes")
	excludes := splitExpanded(cfg, excludesRaw, host, user)

	backupdirRaw, err := cfg.GetRequired("backupdir")
	if err != nil {
		return nil, err
	}
	backupDir := cfg.Expand(backupdirRaw, map[string]string{"host": host, "user": user})

	nameTmpl, err := cfg.GetRequired("name")
	if err != nil {
		return nil, err
	}

	algorithms := cfg.GetSplit("checksum")
	if len(algorithms) == 0 {
		algorithms = []string{"sha256"}
	}

	dedupName, _ := cfg.Get("dedup")
	if dedupName == "" {
		dedupName = "link"
	}
	dedup, ok := archive.ParseDedupPolicy(dedupName)
	if !ok {
		return nil, &config.ConfigError{Reason: fmt.Sprintf("invalid dedup policy %q", dedupName)}
	}

	chain := cfg.GetSplitSep("schedules", "/")
	if len(chain) == 0 {
		return nil, &config.ConfigError{Reason: "schedules is required but not set"}
	}
	nodes, err := buildSchedules(cfg, chain)
	if err != nil {
		return nil, err
	}

	return &settings{
		cfg:        cfg,
		host:       host,
		policy:     policy,
		user:       user,
		backupDir:  backupDir,
		dirs:       dirs,
		excludes:   excludes,
		algorithms: algorithms,
		dedup:      dedup,
		nameTmpl:   nameTmpl,
		schedules:  nodes,
	}, nil
}

// splitExpanded splits a config value on commas and expands %(...)s
// placeholders in each element, used for dirs/excludes which may reference
// %(home)s.
func splitExpanded(cfg *config.Config, raw, host, user string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	extra := map[string]string{"host": host, "user": user}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, cfg.Expand(p, extra))
	}
	return out
}

// scheduleClass maps a chain element's declared type to its node
// constructor. An element may name "name:type" (original's "n, t =
// s.split(':')"); an element with no colon uses its own name as the type.
func scheduleClass(element string) (name, class string) {
	if i := strings.IndexByte(element, ':'); i >= 0 {
		return element[:i], element[i+1:]
	}
	return element, element
}

// buildSchedules constructs the schedule chain named by chain, in declared
// order, each stage reading its "schedule.<name>.date" key, per
// original_source/src/archive/bt/create.py's get_schedule.
func buildSchedules(cfg *config.Config, chain []string) ([]schedule.Node, error) {
	var nodes []schedule.Node
	var parent schedule.Node
	for _, element := range chain {
		name, class := scheduleClass(element)
		dateKey := fmt.Sprintf("schedule.%s.date", name)
		spec, err := cfg.GetRequired(dateKey)
		if err != nil {
			return nil, err
		}
		date, err := schedule.NewScheduleDate(spec)
		if err != nil {
			return nil, err
		}

		var node schedule.Node
		switch class {
		case "full":
			node = schedule.NewFullSchedule(name, date)
		case "cumu":
			if parent == nil {
				return nil, &config.ConfigError{Reason: fmt.Sprintf("schedule %q: cumu requires a preceding schedule", name)}
			}
			node = schedule.NewCumuSchedule(name, date, parent)
		case "incr":
			if parent == nil {
				return nil, &config.ConfigError{Reason: fmt.Sprintf("schedule %q: incr requires a preceding schedule", name)}
			}
			node = schedule.NewIncrSchedule(name, date, parent)
		default:
			return nil, &config.ConfigError{Reason: fmt.Sprintf("schedule %q: unknown class %q", name, class)}
		}
		nodes = append(nodes, node)
		parent = node
	}
	return nodes, nil
}

// path is the archive destination for a completed backup run, expanding
// name against host/user/date/schedule once the selected schedule is known.
func (s *settings) path(scheduleName string) string {
	extra := map[string]string{
		"host":     s.host,
		"user":     s.user,
		"schedule": scheduleName,
		"date":     time.Now().Format("060102"),
	}
	return filepath.Join(s.backupDir, s.cfg.Expand(s.nameTmpl, extra))
}

// extension returns the archive suffix (".tar", ".tar.gz", ".tar.bz2",
// ".tar.xz", ...) the name template renders to, independent of which
// schedule ends up selected, so a scratch path can be given the same
// suffix and have pkg/compress infer the matching codec.
func (s *settings) extension() string {
	name := filepath.Base(s.path("scratch"))
	if i := strings.Index(name, ".tar"); i >= 0 {
		return name[i:]
	}
	return filepath.Ext(name)
}
