package pipeline

import (
	"fmt"
	"strconv"

	"optdbg/internal/catalog"
	"optdbg/internal/session"
)

// cacheKey covers every input that can change the session: file
// contents, opt options and the pattern table.
func cacheKey(req *Request, cat *catalog.Catalog) (session.Key, error) {
	var b session.KeyBuilder
	b.Text("optdbg-session").Text(strconv.Itoa(int(session.SchemaVersion)))
	for _, f := range []string{req.Input, req.Before, req.After, req.Remarks} {
		if _, err := b.File(f); err != nil {
			return session.Key{}, fmt.Errorf("failed to hash %s: %w", f, err)
		}
	}
	if !req.pairMode() {
		p := req.Pass
		b.Text(p.Opt).Text(p.Pipeline()).
			Text(fmt.Sprintf("vec=%t unroll=%t verify=%t inline=%d", p.Vectorize, p.Unroll, p.VerifyEach, p.InlineThreshold))
	}
	for _, pat := range cat.All() {
		b.Text(fmt.Sprintf("%+v", pat))
	}
	return b.Sum(), nil
}
