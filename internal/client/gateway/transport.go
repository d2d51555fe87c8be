package gateway

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
	"github.com/vidyasetu/vidyasetu/internal/client/credstore"
)

// authTransport attaches the current bearer token to every request.
type authTransport struct {
	next   http.RoundTripper
	tokens TokenReader
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok, err := t.tokens.Get(req.Context(), credstore.KeyToken)
	if err != nil {
		closeBody(req)
		return nil, clienterr.Wrap(clienterr.KindStorage, "gateway.auth", "read token", err)
	}

	out := req.Clone(req.Context())
	if ok && token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	return t.next.RoundTrip(out)
}

// closeBody honours the RoundTripper contract on early return.
func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
