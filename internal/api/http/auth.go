package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// SignIn é implementado por provedores que sabem montar a URL de login OAuth
type SignIn interface {
	SignInURL(redirectTo string) string
}

// login redireciona para o provedor; o retorno cai em /auth/callback
func (a *API) login(w http.ResponseWriter, r *http.Request) {
	p, ok := a.Verifier.(SignIn)
	if !ok {
		http.Error(w, "sign-in not configured", http.StatusServiceUnavailable)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	http.Redirect(w, r, p.SignInURL(scheme+"://"+r.Host+"/auth/callback"), http.StatusFound)
}

// authCallback recebe o retorno do login OAuth (access_token na query),
// valida no provedor e volta para a página inicial.
func (a *API) authCallback(w http.ResponseWriter, r *http.Request) {
	if a.Verifier == nil {
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}
	q := r.URL.Query()
	if q.Get("error") != "" {
		a.Log.Warn("auth callback error", zap.String("error", q.Get("error")), zap.String("description", q.Get("error_description")))
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}

	token := q.Get("access_token")
	if token == "" {
		// sem sessão nova: mantém a atual
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s, err := a.Verifier.User(r.Context(), token)
	if err != nil {
		a.Log.Warn("auth callback verification failed", zap.Error(err))
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
		return
	}
	a.Backend.SetSession(r.Context(), s)
	a.Log.Info("session established", zap.String("user_id", s.UserID))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.Backend.SetSession(r.Context(), nil)
	w.WriteHeader(http.StatusNoContent)
}
