package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/jobtracker/internal/server/session"
)

const (
	secretWordKey     = "secret_word"
	defaultSecretWord = "syzygy"
)

func (s *Server) secretWord(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.serverError(w, r, errors.New("secret word: no session"))
		return
	}
	word, ok := sess.Value(secretWordKey)
	if !ok {
		word = defaultSecretWord
	}
	s.render(w, r, "secretword", "Secret word", word)
}

func (s *Server) setSecretWord(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.serverError(w, r, errors.New("secret word: no session"))
		return
	}

	word := strings.TrimSpace(r.PostFormValue("secretWord"))
	if word == "" {
		redirectWithFlash(w, r, flashError, "Please provide a secret word.", "/secretWord")
		return
	}
	sess.SetValue(secretWordKey, word)
	redirectWithFlash(w, r, flashInfo, "The secret word was updated.", "/secretWord")
}

// multiply answers {"result": first*second}. Input that is not a number
// gives "NaN", an overflow gives null.
func (s *Server) multiply(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	first, err1 := strconv.ParseFloat(strings.TrimSpace(q.Get("first")), 64)
	second, err2 := strconv.ParseFloat(strings.TrimSpace(q.Get("second")), 64)

	var result any
	product := first * second
	switch {
	case err1 != nil || err2 != nil || math.IsNaN(product):
		result = "NaN"
	case math.IsInf(product, 0):
		result = nil
	default:
		result = product
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
