package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/vestlock/internal/engine"
	"github.com/roach88/vestlock/internal/ir"
	"github.com/roach88/vestlock/internal/layout"
)

// scheduleSchema constrains authored schedules. Semantic checks (epoch
// ordering, zero claims) are left to engine.ValidateGenesis so that there is
// exactly one definition of a valid record.
const scheduleSchema = `
#U64:  int & >=0 & <=18446744073709551615
#Hash: string & =~"^(0x)?[0-9a-fA-F]{64}$"

#Schedule: {
	creator:           #Hash
	beneficiary:       #Hash
	start:             #U64
	end:               #U64
	cliff:             #U64
	total:             #U64
	highest_time_seen: *0 | #U64
}
`

// requiredFields are checked before unification so a missing field is
// reported by name rather than as an incomplete value.
var requiredFields = []string{"creator", "beneficiary", "start", "end", "cliff", "total"}

// Schedule is a compiled vesting schedule: the record it creates, in both
// typed and encoded form.
type Schedule struct {
	Name        string    `json:"name"`
	Config      ir.Config `json:"config"`
	Genesis     ir.State  `json:"genesis"`
	ConfigBytes []byte    `json:"-"`
	StateBytes  []byte    `json:"-"`
	RecordID    string    `json:"record_id"`
}

// CompileSchedule turns a CUE schedule value into a genesis record.
//
// The value should be the schedule struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`schedule: grant: { ... }`)
//	s, err := CompileSchedule(v.LookupPath(cue.ParsePath("schedule.grant")))
//
// Schema problems return *CompileError. A schedule that would create an
// invalid record returns the engine's *ir.RejectError.
func CompileSchedule(v cue.Value) (*Schedule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	s := &Schedule{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		s.Name = labels[len(labels)-1].String()
	}

	for _, name := range requiredFields {
		f := v.LookupPath(cue.ParsePath(name))
		if !f.Exists() {
			return nil, &CompileError{
				Field:   name,
				Message: name + " is required",
				Pos:     v.Pos(),
			}
		}
		if k := f.IncompleteKind(); k == cue.FloatKind {
			return nil, &CompileError{
				Field:   name,
				Message: "float values are forbidden - amounts and time points are integers",
				Pos:     f.Pos(),
			}
		}
	}

	schema := v.Context().CompileString(scheduleSchema).LookupPath(cue.ParsePath("#Schedule"))
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var err error
	if s.Config.Creator, err = hashField(unified, "creator"); err != nil {
		return nil, err
	}
	if s.Config.Beneficiary, err = hashField(unified, "beneficiary"); err != nil {
		return nil, err
	}
	if s.Config.Start, err = uintField(unified, "start"); err != nil {
		return nil, err
	}
	if s.Config.End, err = uintField(unified, "end"); err != nil {
		return nil, err
	}
	if s.Config.Cliff, err = uintField(unified, "cliff"); err != nil {
		return nil, err
	}
	if s.Genesis.Total, err = uintField(unified, "total"); err != nil {
		return nil, err
	}
	if s.Genesis.HighestTimeSeen, err = uintField(unified, "highest_time_seen"); err != nil {
		return nil, err
	}

	s.ConfigBytes = layout.EncodeConfig(s.Config)
	s.StateBytes = layout.EncodeState(s.Genesis)
	if err := engine.ValidateGenesis(s.ConfigBytes, s.StateBytes); err != nil {
		return nil, err
	}
	s.RecordID = ir.RecordID(s.ConfigBytes)
	return s, nil
}

// LoadSchedules loads every .cue file in dir as one instance and compiles
// each field under "schedule" in declaration order.
func LoadSchedules(dir string) ([]Schedule, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schedulesVal := value.LookupPath(cue.ParsePath("schedule"))
	if !schedulesVal.Exists() {
		return nil, &CompileError{Field: "schedule", Message: "no schedules defined"}
	}
	iter, err := schedulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var schedules []Schedule
	for iter.Next() {
		s, err := CompileSchedule(iter.Value())
		if err != nil {
			return schedules, fmt.Errorf("schedule.%s: %w", iter.Selector().String(), err)
		}
		schedules = append(schedules, *s)
	}
	if len(schedules) == 0 {
		return nil, &CompileError{Field: "schedule", Message: "no schedules defined"}
	}
	return schedules, nil
}

func hashField(v cue.Value, name string) (ir.Hash32, error) {
	f := v.LookupPath(cue.ParsePath(name))
	str, err := f.String()
	if err != nil {
		return ir.Hash32{}, formatCUEError(err)
	}
	h, err := ir.ParseHash32(str)
	if err != nil {
		return ir.Hash32{}, &CompileError{Field: name, Message: err.Error(), Pos: f.Pos()}
	}
	return h, nil
}

func uintField(v cue.Value, name string) (uint64, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if d, ok := f.Default(); ok {
		f = d
	}
	n, err := f.Uint64()
	if err != nil {
		return 0, &CompileError{Field: name, Message: err.Error(), Pos: f.Pos()}
	}
	return n, nil
}
