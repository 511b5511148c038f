package vtable

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DumpReport is the YAML-serializable shape of a human-readable table
// report, used by the vtablec inspect subcommand and by tests that assert on
// packing decisions without decoding the binary image.
type DumpReport struct {
	BuildID       string            `yaml:"build_id"`
	Length        int               `yaml:"length"`
	LiveSelectors int               `yaml:"live_selectors"`
	Selectors     []SelectorSummary `yaml:"selectors"`
}

// SelectorSummary is one selector's row in a DumpReport.
type SelectorSummary struct {
	Id          int    `yaml:"id"`
	CallCount   int    `yaml:"call_count"`
	ClassIds    []int  `yaml:"class_ids"`
	TargetCount int    `yaml:"target_count"`
	Offset      *int   `yaml:"offset,omitempty"`
	Signature   string `yaml:"signature"`
}

// NewDumpReport projects a TableImage into a DumpReport.
func NewDumpReport(img *TableImage) *DumpReport {
	r := &DumpReport{BuildID: img.BuildID, Length: img.Length}
	for _, si := range img.Selectors {
		summary := SelectorSummary{
			Id:          int(si.Id),
			CallCount:   si.CallCount,
			TargetCount: si.TargetCount,
			Signature:   formatSignature(si.Signature),
		}
		for _, c := range si.ClassIds {
			summary.ClassIds = append(summary.ClassIds, int(c))
		}
		if si.HasOffset {
			offset := si.Offset
			summary.Offset = &offset
			r.LiveSelectors++
		}
		r.Selectors = append(r.Selectors, summary)
	}
	return r
}

func formatSignature(sig CallSignature) string {
	in := make([]string, len(sig.Inputs))
	for i, v := range sig.Inputs {
		in[i] = formatValueType(v)
	}
	out := make([]string, len(sig.Outputs))
	for i, v := range sig.Outputs {
		out[i] = formatValueType(v)
	}
	return fmt.Sprintf("(%s) -> (%s)", strings.Join(in, ", "), strings.Join(out, ", "))
}

func formatValueType(v ValueType) string {
	s := fmt.Sprintf("class#%d", v.Class)
	if v.Nullable {
		s += "?"
	}
	if v.Boxed {
		s += "!boxed"
	}
	return s
}

// Dump marshals r as YAML, matching the human-readable debug-dump style
// used elsewhere in the toolchain for config and inspection output.
func (r *DumpReport) Dump() ([]byte, error) {
	return yaml.Marshal(r)
}
