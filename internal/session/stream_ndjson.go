package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"edgellm/pkg/types"
)

// StreamChat runs one generation for query and writes it to w as NDJSON:
// one {"token": ...} line per token followed by a types.ChatDone line. flush
// (optional) is called after every line. Errors before the first token are
// returned without writing anything so the caller can still choose a status
// code; a failed write abandons the generation.
func (s *Session) StreamChat(ctx context.Context, query string, w io.Writer, flush func()) error {
	st, err := s.GenerateResponse(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	for {
		tok, err := st.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if _, err := w.Write(tokenLineJSON(tok)); err != nil {
			return err
		}
		if flush != nil {
			flush()
		}
	}

	m := st.Metrics()
	end := types.ChatDone{
		Done:            true,
		Content:         st.Text(),
		Tokens:          m.TokensGenerated,
		TokensPerSecond: m.TokensPerSecond(),
	}
	jb, _ := json.Marshal(end)
	if _, err := w.Write(append(jb, '\n')); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}

// tokenLineJSON formats a token NDJSON line using json.Marshal for correctness.
func tokenLineJSON(tok string) []byte {
	type tokenMsg struct {
		Token string `json:"token"`
	}
	b, _ := json.Marshal(tokenMsg{Token: tok})
	return append(b, '\n')
}
