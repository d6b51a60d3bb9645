package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(apiURL string) *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute)
}

// printJSON pretty-prints a response body that is already JSON.
func printJSON(out io.Writer, body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		_, werr := out.Write(body)
		return werr
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkStatus(resp *resty.Response) error {
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func runProgress(apiURL string, out io.Writer) error {
	resp, err := newClient(apiURL).R().Get("/api/migration/progress")
	if err != nil {
		return err
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func runConsistency(apiURL string, out io.Writer) error {
	resp, err := newClient(apiURL).R().Get("/api/migration/consistency")
	if err != nil {
		return err
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func runMigrate(apiURL string, memorialID int, out io.Writer) error {
	resp, err := newClient(apiURL).R().Post(fmt.Sprintf("/api/migration/memorials/%d", memorialID))
	if err != nil {
		return err
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func runBatch(apiURL string, limit int, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		Post("/api/migration/batch")
	if err != nil {
		return err
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func runSearch(apiURL, query string, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetQueryParam("q", query).
		Get("/api/search")
	if err != nil {
		return err
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}
