package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"confportal.org/internal/ids"
)

type client struct {
	base  string
	http  *http.Client
	token string
}

func (c *client) call(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.do(req, out)
}

func (c *client) login(ctx context.Context, email, password string) error {
	form := url.Values{"username": {email}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/login/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(req, &tok); err != nil {
		return err
	}
	c.token = tok.AccessToken
	return nil
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func main() {
	base := os.Getenv("PORTAL_API_URL")
	if base == "" {
		base = "http://localhost:8000"
	}
	c := &client{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.call(ctx, http.MethodGet, "/readyz", nil, nil); err != nil {
		log.Fatalf("readyz: %v", err)
	}

	email := "smoke-" + strings.ToLower(ids.New()) + "@example.com"
	const password = "smoke-password"
	var user struct {
		UserID string `json:"user_id"`
	}
	if err := c.call(ctx, http.MethodPost, "/user/create", map[string]any{
		"name": "Smoke", "surname": "Test", "age": 30, "email": email, "password": password,
	}, &user); err != nil {
		log.Fatalf("register: %v", err)
	}
	if err := c.login(ctx, email, password); err != nil {
		log.Fatalf("login: %v", err)
	}

	var events []struct {
		EventID string `json:"event_id"`
		Name    string `json:"name"`
	}
	if err := c.call(ctx, http.MethodGet, "/user/all_events", nil, &events); err != nil {
		log.Fatalf("events: %v", err)
	}
	if len(events) == 0 {
		log.Fatalf("no active events; run `migrate seed` first")
	}

	var app struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.call(ctx, http.MethodPost, "/user/create_application", map[string]any{
		"event_id": events[0].EventID, "application_name": "Smoke talk", "content": "Smoke abstract",
	}, &app); err != nil {
		log.Fatalf("create application: %v", err)
	}
	if app.Status != "UNREVIEWED" {
		log.Fatalf("unexpected application status %q", app.Status)
	}

	var mine []struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodGet, "/user/this_application?user_id="+user.UserID, nil, &mine); err != nil {
		log.Fatalf("list applications: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != app.ID {
		log.Fatalf("application %s not listed for user %s", app.ID, user.UserID)
	}

	if err := c.call(ctx, http.MethodDelete, "/user/delete?user_id="+user.UserID, nil, nil); err == nil {
		log.Fatalf("regular user was allowed to delete an account")
	}

	fmt.Printf("✅ portal smoke test passed: user=%s application=%s event=%q\n", user.UserID, app.ID, events[0].Name)
}
