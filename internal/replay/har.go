// Package replay feeds recorded HAR files through the capture pipeline,
// the offline counterpart of the live NATS tap.
package replay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MikeSquared-Agency/quarry/internal/search"
)

type harDocument struct {
	Log struct {
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	Request struct {
		URL      string `json:"url"`
		Method   string `json:"method"`
		PostData *struct {
			Text string `json:"text"`
		} `json:"postData"`
	} `json:"request"`
	Response struct {
		Status  int `json:"status"`
		Content *struct {
			Text     string `json:"text"`
			Encoding string `json:"encoding"`
		} `json:"content"`
	} `json:"response"`
}

// ParseHAR reads a HAR document into Captures. Response bodies recorded as
// base64 are decoded; entries whose bodies fail to decode are kept with an
// empty body and degrade downstream.
func ParseHAR(r io.Reader) ([]search.Capture, error) {
	var doc harDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse har: %w", err)
	}

	captures := make([]search.Capture, 0, len(doc.Log.Entries))
	for _, entry := range doc.Log.Entries {
		c := search.Capture{
			URL:    entry.Request.URL,
			Method: entry.Request.Method,
			Status: entry.Response.Status,
		}
		if entry.Request.PostData != nil {
			c.RequestBody = entry.Request.PostData.Text
		}
		if content := entry.Response.Content; content != nil {
			body := content.Text
			if content.Encoding == "base64" {
				if decoded, err := base64.StdEncoding.DecodeString(body); err == nil {
					body = string(decoded)
				} else {
					body = ""
				}
			}
			c.ResponseBody = body
		}
		captures = append(captures, c)
	}
	return captures, nil
}
