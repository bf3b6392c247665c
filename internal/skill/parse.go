// SPDX-License-Identifier: MPL-2.0

package skill

import (
	"bytes"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"

	"doppio-engine/internal/engineerr"
)

// schemaSource is the CUE schema a decoded skill document is unified
// against as a secondary validation pass, catching the constraints a
// plain struct decode cannot express: id shape, enum membership, and
// numeric ranges.
const schemaSource = `
#Retry: {
	max_attempts?:    int & >=1
	backoff_seconds?: number & >=0
	...
}

#Step: {
	id:            =~"^[A-Za-z0-9_-]+$"
	depends_on?:   [...string]
	retry?:        #Retry
	timeout_secs?: number & >0
	on_failure?:   "abort" | "continue" | "skip-dependents"
	...
}

#Skill: {
	skill: {
		name:    string & !=""
		version: string & !=""
		...
	}
	step?: [...#Step]
	...
}
`

// ParseBytes decodes a TOML skill document, converts it into the typed
// Skill model, and validates it against the CUE schema before returning
// it. It does not perform graph validation (cycle/dependency checks);
// call Validate on the result for that.
func ParseBytes(data []byte) (*Skill, error) {
	data = stripBOM(data)

	var doc rawDocument
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, engineerr.InvalidInput("skill.parse", fmt.Errorf("decode toml: %w", err))
	}

	// The schema pass runs over a generic re-decode of the same bytes so
	// the CUE field names line up with the document's own keys.
	var generic map[string]any
	if err := toml.Unmarshal(data, &generic); err != nil {
		return nil, engineerr.InvalidInput("skill.parse", fmt.Errorf("decode toml: %w", err))
	}
	if err := validateAgainstSchema(generic); err != nil {
		return nil, engineerr.InvalidInput("skill.parse", fmt.Errorf("schema validation: %w", err))
	}

	skill, err := toSkill(doc)
	if err != nil {
		return nil, err
	}
	if err := expandGroups(skill); err != nil {
		return nil, err
	}
	return skill, nil
}

func validateAgainstSchema(doc map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if schema.Err() != nil {
		return fmt.Errorf("compile schema: %w", schema.Err())
	}
	skillSchema := schema.LookupPath(cue.ParsePath("#Skill"))
	if skillSchema.Err() != nil {
		return fmt.Errorf("lookup #Skill: %w", skillSchema.Err())
	}

	value := ctx.Encode(doc)
	if value.Err() != nil {
		return fmt.Errorf("encode document: %w", value.Err())
	}

	unified := skillSchema.Unify(value)
	if err := unified.Validate(cue.Concrete(true), cue.All()); err != nil {
		return err
	}
	return nil
}

// stripBOM removes a leading UTF-8 byte order mark, if present.
func stripBOM(data []byte) []byte {
	bom := []byte{0xEF, 0xBB, 0xBF}
	if len(data) >= 3 && data[0] == bom[0] && data[1] == bom[1] && data[2] == bom[2] {
		return data[3:]
	}
	return data
}
