package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/anchore/cwe-lookup/pkg/resolve"
	"github.com/anchore/cwe-lookup/pkg/weakness"
)

type outcomeDocument struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Weaknesses []string `json:"weaknesses,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func writeResult(w io.Writer, format string, result resolve.Result, single bool) error {
	switch format {
	case "json":
		return writeJSONResult(w, result)
	case "text":
		if single {
			return writeSingleResult(w, result)
		}
		return writeBatchResult(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// writeSingleResult writes one line for the lone identifier; multiple weaknesses are joined with ";".
func writeSingleResult(w io.Writer, result resolve.Result) error {
	for _, o := range result {
		if _, err := fmt.Fprintf(w, "%s,%s\n", o.ID.Value, o.Summary()); err != nil {
			return err
		}
	}
	return nil
}

// writeBatchResult writes one "id,weakness" line per resolved weakness, in input order.
func writeBatchResult(w io.Writer, result resolve.Result) error {
	for _, p := range result.Pairs() {
		if _, err := fmt.Fprintf(w, "%s,%s\n", p.ID, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONResult(w io.Writer, result resolve.Result) error {
	docs := make([]outcomeDocument, 0, len(result))
	for _, o := range result {
		doc := outcomeDocument{
			ID:   o.ID.Value,
			Kind: o.ID.Kind.String(),
		}
		if o.Failure != nil {
			doc.Error = o.Failure.String()
		} else {
			doc.Weaknesses = weakness.Strings(o.Weaknesses)
		}
		docs = append(docs, doc)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("unable to encode results: %w", err)
	}
	return nil
}
