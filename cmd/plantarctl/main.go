package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"plantar/internal/domain"
	"plantar/internal/identity"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "token":
		err = runToken(args, os.Stdout)
	case "ingest":
		err = runIngest(args)
	case "predict":
		err = runPredict(args)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  token     Mint a development user token")
	fmt.Fprintln(os.Stderr, "  ingest    Push a pressure frame as a device")
	fmt.Fprintln(os.Stderr, "  predict   Request a prediction report")
	os.Exit(2)
}

func runToken(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("USER_JWT_SECRET"), "HS256 signing secret")
	issuer := fs.String("issuer", os.Getenv("USER_JWT_ISSUER"), "token issuer")
	user := fs.String("user", "", "user UUID (generated if empty)")
	role := fs.String("role", string(domain.RolePatient), "patient, clinician or admin")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	uid := uuid.New()
	if s := strings.TrimSpace(*user); s != "" {
		var err error
		if uid, err = uuid.Parse(s); err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
	}
	signer, err := identity.NewSigner(*secret, *issuer)
	if err != nil {
		return err
	}
	tok, err := signer.Sign(domain.Caller{UserID: uid, Role: domain.Role(*role)}, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}

// zeroFrame builds an ingest payload with an all-zero grid.
func zeroFrame(sessionID string, width, height int, foot string) map[string]any {
	rows := make([][]float64, height)
	for i := range rows {
		rows[i] = make([]float64, width)
	}
	return map[string]any{
		"session_id":  sessionID,
		"foot":        foot,
		"grid_width":  width,
		"grid_height": height,
		"pressure":    rows,
		"captured_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func runIngest(args []string) error {
	fs := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	baseURL := fs.String("base-url", getenv("PLANTAR_BASE_URL", "http://localhost:8080"), "service base URL")
	secret := fs.String("device-secret", os.Getenv("PLANTAR_DEVICE_SECRET"), "device ingest secret")
	session := fs.String("session", "", "session UUID")
	width := fs.Int("width", 8, "grid width")
	height := fs.Int("height", 8, "grid height")
	foot := fs.String("foot", string(domain.FootBoth), "left, right or both")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*session) == "" {
		return fmt.Errorf("--session is required")
	}
	body, err := json.Marshal(zeroFrame(*session, *width, *height, *foot))
	if err != nil {
		return err
	}
	return call(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/sensor/ingest", *secret, body)
}

func runPredict(args []string) error {
	fs := pflag.NewFlagSet("predict", pflag.ContinueOnError)
	baseURL := fs.String("base-url", getenv("PLANTAR_BASE_URL", "http://localhost:8080"), "service base URL")
	token := fs.String("token", os.Getenv("PLANTAR_TOKEN"), "user bearer token")
	session := fs.String("session", "", "session UUID (optional)")
	metadata := fs.String("metadata", "{}", "metadata JSON object")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var md map[string]any
	if err := json.Unmarshal([]byte(*metadata), &md); err != nil {
		return fmt.Errorf("invalid --metadata: %w", err)
	}
	payload := map[string]any{"metadata": md}
	if s := strings.TrimSpace(*session); s != "" {
		payload["session_id"] = s
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return call(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/predict", *token, body)
}

func call(method, url, bearer string, body []byte) error {
	client := &http.Client{Timeout: 15 * time.Second}
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close response body: %v\n", cerr)
		}
	}()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		if len(data) == 0 {
			data = []byte(resp.Status)
		}
		return fmt.Errorf("request failed: %s", strings.TrimSpace(string(data)))
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		_, err = os.Stdout.Write(data)
		return err
	}
	return printJSON(v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
