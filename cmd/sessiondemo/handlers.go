package main

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func routes(r chi.Router) {
	r.Get("/", home)
	r.Post("/login", login)
	r.Post("/logout", logout)
	r.Get("/contact", contactForm)
	r.Post("/contact", contactSubmit)
}

func current(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "sessions are disabled", http.StatusServiceUnavailable)
	}
	return sess, ok
}

func home(w http.ResponseWriter, r *http.Request) {
	sess, ok := current(w, r)
	if !ok {
		return
	}

	if err := sess.Increment("visits", 1); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	visits, _ := sess.GetInt("visits")
	name, ok := sess.GetString("user.name")
	if !ok {
		name = "guest"
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "hello %s, visit #%d\n", name, visits)
	if notice, ok := sess.FlashMessages().Get("notice", nil).(string); ok {
		fmt.Fprintf(w, "notice: %s\n", notice)
	}
}

func login(w http.ResponseWriter, r *http.Request) {
	sess, ok := current(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		_ = sess.Flash("notice", "name is required")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := sess.Put("user.name", name); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = sess.Flash("notice", "welcome back, "+name)
	sess.Regenerate()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := current(w, r)
	if !ok {
		return
	}
	_ = sess.Clear()
	sess.Regenerate()
	_ = sess.Flash("notice", "signed out")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func contactForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := current(w, r)
	if !ok {
		return
	}

	flash := sess.FlashMessages()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "email: %v\nmessage: %v\n", flash.Get("email", ""), flash.Get("message", ""))
	if errs, ok := flash.Get("errors", nil).(map[string]any); ok {
		for field, msg := range errs {
			fmt.Fprintf(w, "error %s: %v\n", field, msg)
		}
	}
	if notice, ok := flash.Get("notice", nil).(string); ok {
		fmt.Fprintf(w, "notice: %s\n", notice)
	}
}

func contactSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := current(w, r)
	if !ok {
		return
	}

	errs := make(map[string]string)
	if _, err := mail.ParseAddress(r.FormValue("email")); err != nil {
		errs["email"] = "enter a valid email address"
	}
	if strings.TrimSpace(r.FormValue("message")) == "" {
		errs["message"] = "message cannot be empty"
	}

	if len(errs) > 0 {
		if err := sess.FlashOnly("email", "message"); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = sess.FlashErrors(errs)
	} else {
		_ = sess.Flash("notice", "thanks, we will be in touch")
	}
	http.Redirect(w, r, "/contact", http.StatusSeeOther)
}
