package models

import (
	"encoding/json"
	"net/http"
)

// WriteProblem — problem+json для инфраструктурных ручек (health и т.п.).
// Клиентский API вместо этого использует конверт Response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string, extra map[string]string) {
	w.Header().Set("Content-Type", "application/problem+json; charset=utf-8")
	w.WriteHeader(status)
	body := map[string]any{
		"title":  title,
		"detail": detail,
		"status": status,
	}
	for k, v := range extra {
		body[k] = v
	}
	_ = json.NewEncoder(w).Encode(body)
}
