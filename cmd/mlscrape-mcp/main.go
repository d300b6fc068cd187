package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the service's request model.
type scrapeRequest struct {
	URL       string `json:"url"`
	Timeout   int    `json:"timeout,omitempty"`
	FetchMode string `json:"fetch_mode,omitempty"`
}

// scrapeResponse mirrors the service's response envelope.
type scrapeResponse struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Degraded bool            `json:"degraded"`
	Source   string          `json:"source"`
	Message  string          `json:"message"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("MLSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}
	apiURL = strings.TrimRight(apiURL, "/")

	s := server.NewMCPServer(
		"mlscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeProductTool := mcp.NewTool("scrape_product",
		mcp.WithDescription("Scrape a MercadoLibre product page and return a normalized product record: id, title, price, currency, status, condition, quantities, seller, shipping, payment methods, images and specifications."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the product page"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'browser' (default, headless Chrome) or 'http' (static HTML, faster, no script execution)"),
			mcp.Enum("browser", "http"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Timeout in seconds (default: 90, max: 180)"),
		),
	)
	s.AddTool(scrapeProductTool, handleScrape(apiURL, "/scrape/product-info"))

	scrapeRawTool := mcp.NewTool("scrape_raw",
		mcp.WithDescription("Scrape a MercadoLibre product page and return the raw embedded state payload exactly as the page carries it, or the DOM-extracted fields when the page has no embedded state."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the product page"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'browser' (default) or 'http'"),
			mcp.Enum("browser", "http"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Timeout in seconds (default: 90, max: 180)"),
		),
	)
	s.AddTool(scrapeRawTool, handleScrape(apiURL, "/scrape"))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the service and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleScrape(apiURL, path string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 200 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scrapeRequest{
			URL:       url,
			Timeout:   request.GetInt("timeout", 0),
			FetchMode: request.GetString("fetch_mode", ""),
		}

		respBody, err := apiPost(ctx, client, apiURL, path, reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !scrapeResp.Success {
			errMsg := "scrape failed"
			if scrapeResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", scrapeResp.Error.Code, scrapeResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, scrapeResp.Data, "", "  "); err != nil {
			pretty.Reset()
			pretty.Write(scrapeResp.Data)
		}

		result := fmt.Sprintf("Source: %s\n", scrapeResp.Source)
		if scrapeResp.Degraded {
			result += "Note: the page data could not be normalized; the raw payload follows.\n"
		}
		result += "\n" + pretty.String()

		return mcp.NewToolResultText(result), nil
	}
}
