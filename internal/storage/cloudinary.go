// Package storage holds the remote file store adapter. Documents and
// profile photos live in Cloudinary; the adapter performs signed uploads
// and deletions against the HTTP API and parses public ids back out of
// delivery URLs.
package storage

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// UploadResult is what a successful store call returns: the delivery URL
// persisted in the database and the public id needed for later deletion.
type UploadResult struct {
	URL      string
	PublicID string
}

// Cloudinary is a thin client over the Cloudinary upload API. The zero
// value is not usable; construct it with NewCloudinary.
type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
	Client    *http.Client
	now       func() time.Time
}

func NewCloudinary(cloudName, apiKey, apiSecret string) *Cloudinary {
	return &Cloudinary{
		CloudName: cloudName,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Client:    &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// sign computes the SHA-1 request signature over the sorted parameter
// string plus the API secret, as the upload API requires.
func (c *Cloudinary) sign(params string) string {
	sum := sha1.Sum([]byte(params + c.APISecret))
	return hex.EncodeToString(sum[:])
}

// Upload stores an image under folder/name and returns its URL and public
// id. Any failure is fatal to the operation that requested the upload; the
// caller decides whether compensation is needed.
func (c *Cloudinary) Upload(ctx context.Context, data []byte, folder, name string) (UploadResult, error) {
	if len(data) == 0 {
		return UploadResult{}, fmt.Errorf("cloudinary: empty file")
	}

	publicID := name
	if folder != "" {
		publicID = folder + "/" + name
	}
	ts := fmt.Sprintf("%d", c.now().UTC().Unix())

	form := url.Values{}
	form.Set("file", "data:"+http.DetectContentType(data)+";base64,"+base64.StdEncoding.EncodeToString(data))
	form.Set("api_key", c.APIKey)
	form.Set("public_id", publicID)
	form.Set("timestamp", ts)
	form.Set("signature", c.sign("public_id="+publicID+"&timestamp="+ts))

	endpoint := "https://api.cloudinary.com/v1_1/" + c.CloudName + "/image/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("cloudinary: upload request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, fmt.Errorf("cloudinary: upload failed with status %d", resp.StatusCode)
	}

	var parsed struct {
		SecureURL string `json:"secure_url"`
		PublicID  string `json:"public_id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return UploadResult{}, fmt.Errorf("cloudinary: decode upload response: %w", err)
	}
	if parsed.SecureURL == "" {
		return UploadResult{}, fmt.Errorf("cloudinary: upload response missing url")
	}
	return UploadResult{URL: parsed.SecureURL, PublicID: parsed.PublicID}, nil
}

// Delete removes a stored image by public id. Deletion is always
// best-effort: failures are logged and swallowed because an orphaned
// remote file is preferable to blocking a user-facing operation.
func (c *Cloudinary) Delete(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	ts := fmt.Sprintf("%d", c.now().UTC().Unix())

	form := url.Values{}
	form.Set("api_key", c.APIKey)
	form.Set("public_id", publicID)
	form.Set("timestamp", ts)
	form.Set("signature", c.sign("public_id="+publicID+"&timestamp="+ts))

	endpoint := "https://api.cloudinary.com/v1_1/" + c.CloudName + "/image/destroy"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("cloudinary: delete %s: %v", publicID, err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Printf("cloudinary: delete %s: %v", publicID, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("cloudinary: delete %s: status %d", publicID, resp.StatusCode)
	}
}

// PublicIDFromURL implements the service FileStore contract with the
// package-level parser.
func (c *Cloudinary) PublicIDFromURL(rawURL string) string {
	return PublicIDFromURL(rawURL)
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL extracts a public id from a Cloudinary delivery URL:
// take the path after "/upload/", drop a leading version segment like
// v1234567890 and strip the file extension. Non-Cloudinary values (such as
// a textual digital signature) yield "".
func PublicIDFromURL(rawURL string) string {
	if !strings.Contains(rawURL, "cloudinary.com") {
		return ""
	}
	_, after, found := strings.Cut(rawURL, "/upload/")
	if !found || after == "" {
		return ""
	}
	parts := strings.Split(after, "/")
	kept := parts[:0]
	for _, p := range parts {
		if versionSegment.MatchString(p) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return ""
	}
	id := strings.Join(kept, "/")
	if dot := strings.LastIndex(id, "."); dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	return id
}
