package extract

import "github.com/qdblens/qdblens/internal/model"

// Extractor applies the pattern registry to individual lines.
type Extractor struct {
	registry *Registry
}

// NewExtractor creates an extractor over the given registry.
func NewExtractor(registry *Registry) *Extractor {
	return &Extractor{registry: registry}
}

// Extract decodes one line into at most one typed record. Patterns are
// tried in registry order; the first structural match with cleanly
// decoded fields wins. A line matching no pattern returns nil: that is a
// skip, not an error. A matched line without a parseable timestamp is
// dropped the same way.
func (e *Extractor) Extract(line, sourceFile string) *model.LogRecord {
	for _, p := range e.registry.Patterns() {
		rec, ok := p.Match(line)
		if !ok {
			continue
		}
		ts, ok := LineTimestamp(line)
		if !ok {
			return nil
		}
		rec.Timestamp = ts
		rec.SourceFile = sourceFile
		return &rec
	}
	return nil
}
