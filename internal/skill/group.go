// SPDX-License-Identifier: MPL-2.0

package skill

import (
	"fmt"

	"doppio-engine/internal/engineerr"
)

// expandGroups rewrites every Group step away at load time, so no group
// ever reaches the dispatcher: a step that depended on the group now
// depends on all of the group's members, and every member inherits the
// group's own dependencies. Nested groups (a group naming another group
// as a member) are rejected rather than expanded recursively.
func expandGroups(s *Skill) error {
	type groupInfo struct {
		members   []string
		dependsOn []string
	}
	groups := make(map[string]groupInfo)
	for _, st := range s.Steps {
		if g, ok := st.Operation.(Group); ok {
			groups[st.ID] = groupInfo{members: g.StepIDs, dependsOn: st.DependsOn}
		}
	}
	if len(groups) == 0 {
		return nil
	}

	known := make(map[string]bool, len(s.Steps))
	for _, st := range s.Steps {
		known[st.ID] = true
	}
	memberOf := make(map[string][]string) // member step id -> group deps it inherits
	for id, g := range groups {
		for _, member := range g.members {
			if !known[member] {
				return engineerr.InvalidInput("skill.expandGroups",
					fmt.Errorf("group %q names unknown step %q", id, member))
			}
			if _, isGroup := groups[member]; isGroup {
				return engineerr.InvalidInput("skill.expandGroups",
					fmt.Errorf("group %q names group %q as a member; groups cannot nest", id, member))
			}
			memberOf[member] = append(memberOf[member], g.dependsOn...)
		}
	}

	expanded := make([]Step, 0, len(s.Steps)-len(groups))
	for _, st := range s.Steps {
		if _, isGroup := groups[st.ID]; isGroup {
			continue
		}
		deps := make([]string, 0, len(st.DependsOn))
		seen := make(map[string]bool)
		add := func(id string) {
			if id != st.ID && !seen[id] {
				seen[id] = true
				deps = append(deps, id)
			}
		}
		for _, dep := range st.DependsOn {
			if g, isGroup := groups[dep]; isGroup {
				for _, member := range g.members {
					add(member)
				}
				continue
			}
			add(dep)
		}
		for _, inherited := range memberOf[st.ID] {
			// A group's own depends_on may itself name a group.
			if g, isGroup := groups[inherited]; isGroup {
				for _, member := range g.members {
					add(member)
				}
				continue
			}
			add(inherited)
		}
		st.DependsOn = deps
		expanded = append(expanded, st)
	}
	s.Steps = expanded
	return nil
}
