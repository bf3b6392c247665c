// SPDX-License-Identifier: MPL-2.0

package skill

import (
	"fmt"

	"doppio-engine/internal/condition"
)

// ConditionExpr is the Condition type steps and the WaitCondition/Assert
// operations carry. Skill parsing decodes the TOML `when`/`condition`
// tables into condition.Condition values directly, so there is no
// separate condition AST in this package.
type ConditionExpr = condition.Condition

// rawCondition mirrors the tagged-union shape of a `when`/`condition`
// TOML table: exactly one of its fields may be set.
type rawCondition struct {
	FileExists      *rawFileExists      `toml:"file_exists"`
	FileContains    *rawFileContains    `toml:"file_contains"`
	CommandSucceeds *rawCommandSucceeds `toml:"command_succeeds"`
	OutputMatches   *rawOutputMatches   `toml:"output_matches"`
	VarEquals       *rawVarEquals       `toml:"var_equals"`
	VarMatches      *rawVarMatches      `toml:"var_matches"`
	HostOnline      *rawHostOnline      `toml:"host_online"`
	TmuxAlive       *rawTmuxAlive       `toml:"tmux_alive"`
	GpuAvailable    *rawGpuAvailable    `toml:"gpu_available"`
	GdriveMounted   *rawGdriveMounted   `toml:"gdrive_mounted"`
	Not             *rawCondition       `toml:"not"`
	And             []rawCondition      `toml:"and"`
	Or              []rawCondition      `toml:"or"`
	Always          *struct{}           `toml:"always"`
	Never           *struct{}           `toml:"never"`
}

type rawFileExists struct {
	HostID string `toml:"host_id"`
	Path   string `toml:"path"`
}

type rawFileContains struct {
	HostID    string `toml:"host_id"`
	Path      string `toml:"path"`
	Substring string `toml:"substring"`
}

type rawCommandSucceeds struct {
	HostID  string `toml:"host_id"`
	Command string `toml:"command"`
}

type rawOutputMatches struct {
	HostID  string `toml:"host_id"`
	Command string `toml:"command"`
	Pattern string `toml:"pattern"`
}

type rawVarEquals struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type rawVarMatches struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
}

type rawHostOnline struct {
	HostID string `toml:"host_id"`
}

type rawTmuxAlive struct {
	HostID  string `toml:"host_id"`
	Session string `toml:"session"`
}

type rawGpuAvailable struct {
	HostID   string `toml:"host_id"`
	MinCount int    `toml:"min_count"`
}

type rawGdriveMounted struct {
	StorageID string `toml:"storage_id"`
}

// toCondition converts a decoded rawCondition into the tagged condition.Condition
// the engine evaluates at runtime. Returns nil, nil for an entirely empty
// table (no `when` clause present).
func toCondition(rc *rawCondition) (condition.Condition, error) {
	if rc == nil {
		return nil, nil
	}
	switch {
	case rc.FileExists != nil:
		return condition.FileExists{HostID: rc.FileExists.HostID, Path: rc.FileExists.Path}, nil
	case rc.FileContains != nil:
		return condition.FileContains{
			HostID:    rc.FileContains.HostID,
			Path:      rc.FileContains.Path,
			Substring: rc.FileContains.Substring,
		}, nil
	case rc.CommandSucceeds != nil:
		return condition.CommandSucceeds{HostID: rc.CommandSucceeds.HostID, Command: rc.CommandSucceeds.Command}, nil
	case rc.OutputMatches != nil:
		return condition.OutputMatches{
			HostID:  rc.OutputMatches.HostID,
			Command: rc.OutputMatches.Command,
			Pattern: rc.OutputMatches.Pattern,
		}, nil
	case rc.VarEquals != nil:
		return condition.VarEquals{Name: rc.VarEquals.Name, Value: rc.VarEquals.Value}, nil
	case rc.VarMatches != nil:
		return condition.VarMatches{Name: rc.VarMatches.Name, Pattern: rc.VarMatches.Pattern}, nil
	case rc.HostOnline != nil:
		return condition.HostOnline{HostID: rc.HostOnline.HostID}, nil
	case rc.TmuxAlive != nil:
		return condition.TmuxAlive{HostID: rc.TmuxAlive.HostID, Session: rc.TmuxAlive.Session}, nil
	case rc.GpuAvailable != nil:
		return condition.GpuAvailable{HostID: rc.GpuAvailable.HostID, MinCount: rc.GpuAvailable.MinCount}, nil
	case rc.GdriveMounted != nil:
		return condition.GdriveMounted{StorageID: rc.GdriveMounted.StorageID}, nil
	case rc.Not != nil:
		inner, err := toCondition(rc.Not)
		if err != nil {
			return nil, err
		}
		return condition.Not{Inner: inner}, nil
	case len(rc.And) > 0:
		all := make([]condition.Condition, 0, len(rc.And))
		for i := range rc.And {
			c, err := toCondition(&rc.And[i])
			if err != nil {
				return nil, err
			}
			all = append(all, c)
		}
		return condition.And{All: all}, nil
	case len(rc.Or) > 0:
		any := make([]condition.Condition, 0, len(rc.Or))
		for i := range rc.Or {
			c, err := toCondition(&rc.Or[i])
			if err != nil {
				return nil, err
			}
			any = append(any, c)
		}
		return condition.Or{Any: any}, nil
	case rc.Always != nil:
		return condition.Always{}, nil
	case rc.Never != nil:
		return condition.Never{}, nil
	default:
		return nil, fmt.Errorf("condition table has no recognized kind set")
	}
}
