package compiler

import (
	"gopkg.in/yaml.v3"
)

type dumpAlt struct {
	Text   string `yaml:"text"`
	Action string `yaml:"action"`
	Type   string `yaml:"type,omitempty"`
	Cut    bool   `yaml:"cut,omitempty"`
}

type dumpRule struct {
	Name          string    `yaml:"name"`
	Kind          string    `yaml:"kind"`
	Mode          string    `yaml:"mode"`
	Type          string    `yaml:"type"`
	Method        string    `yaml:"method"`
	ID            int       `yaml:"id"`
	Memo          bool      `yaml:"memo,omitempty"`
	Cached        bool      `yaml:"cached,omitempty"`
	Nullable      bool      `yaml:"nullable,omitempty"`
	LeftRecursive bool      `yaml:"left_recursive,omitempty"`
	Leader        bool      `yaml:"leader,omitempty"`
	Alts          []dumpAlt `yaml:"alts"`
}

type dumpSymbol struct {
	Name    string `yaml:"name"`
	Literal string `yaml:"literal"`
	ID      int    `yaml:"id"`
}

type dumpGrammar struct {
	URI      string       `yaml:"uri"`
	Start    string       `yaml:"start,omitempty"`
	Keywords []dumpSymbol `yaml:"keywords,omitempty"`
	Puncts   []dumpSymbol `yaml:"puncts,omitempty"`
	Rules    []dumpRule   `yaml:"rules"`
}

// Dump renders the analysed grammar behind plan as YAML.
func Dump(plan *Plan) (string, error) {
	d := dumpGrammar{URI: plan.Grammar.URI}
	if plan.Start != nil {
		d.Start = plan.Start.Rule.Name
	}
	if plan.Keywords != nil {
		for _, e := range plan.Keywords.Entries {
			d.Keywords = append(d.Keywords, dumpSymbol{Name: e.Name, Literal: e.Literal, ID: e.ID})
		}
	}
	if plan.Puncts != nil {
		for _, e := range plan.Puncts.Entries {
			d.Puncts = append(d.Puncts, dumpSymbol{Name: e.Name, Literal: e.Literal, ID: e.ID})
		}
	}
	for _, rp := range plan.Rules {
		r := rp.Rule
		dr := dumpRule{
			Name:          r.Name,
			Kind:          r.Kind.String(),
			Mode:          rp.Mode.String(),
			Type:          rp.Type.Render(plan.TypeNames),
			Method:        rp.Method,
			ID:            int(rp.Index),
			Memo:          r.Memo,
			Cached:        rp.Cache,
			Nullable:      r.Nullable,
			LeftRecursive: r.LeftRecursive,
			Leader:        r.Leader,
		}
		for _, ap := range rp.Alts {
			da := dumpAlt{
				Text:   ap.Alt.String(),
				Action: ap.Action,
				Cut:    ap.HasCut,
			}
			if ap.Alt.Type != nil {
				da.Type = ap.Alt.Type.Render(plan.TypeNames)
			}
			dr.Alts = append(dr.Alts, da)
		}
		d.Rules = append(d.Rules, dr)
	}
	out, err := yaml.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
