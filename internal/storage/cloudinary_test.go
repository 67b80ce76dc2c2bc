package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "folder and version",
			url:  "https://res.cloudinary.com/demo/image/upload/v1712345678/TripleGeneralAPI/applications/passport_5_123.jpg",
			want: "TripleGeneralAPI/applications/passport_5_123",
		},
		{
			name: "no version segment",
			url:  "https://res.cloudinary.com/demo/image/upload/TripleGeneralAPI/avatars/avatar_1_9.png",
			want: "TripleGeneralAPI/avatars/avatar_1_9",
		},
		{
			name: "no extension",
			url:  "https://res.cloudinary.com/demo/image/upload/v1/folder/file",
			want: "folder/file",
		},
		{
			name: "dot in folder name only",
			url:  "https://res.cloudinary.com/demo/image/upload/v1/my.folder/file",
			want: "my.folder/file",
		},
		{
			name: "textual signature value",
			url:  "I hereby confirm the submitted data is accurate",
			want: "",
		},
		{
			name: "empty string",
			url:  "",
			want: "",
		},
		{
			name: "cloudinary url without upload path",
			url:  "https://res.cloudinary.com/demo/image/fetch/sample.jpg",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PublicIDFromURL(tc.url))
		})
	}
}

// roundTripFunc lets tests stub the HTTP transport without a server.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestUploadSignsAndParsesResponse(t *testing.T) {
	var gotPublicID, gotSignature, gotFile string

	c := NewCloudinary("demo", "key", "secret")
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	c.Client = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		require.NoError(t, r.ParseForm())
		gotPublicID = r.PostForm.Get("public_id")
		gotSignature = r.PostForm.Get("signature")
		gotFile = r.PostForm.Get("file")
		body := `{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/f/n.jpg","public_id":"f/n"}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	})}

	pngBytes := []byte("\x89PNG\r\n\x1a\nrest-of-image")
	res, err := c.Upload(context.Background(), pngBytes, "f", "n")
	require.NoError(t, err)

	assert.Equal(t, "f/n", gotPublicID)
	assert.Equal(t, c.sign("public_id=f/n&timestamp=1700000000"), gotSignature)
	// the data URI prefix reflects the payload, not a fixed type
	assert.True(t, strings.HasPrefix(gotFile, "data:image/png;base64,"), "file field %q", gotFile)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/f/n.jpg", res.URL)
	assert.Equal(t, "f/n", res.PublicID)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	c := NewCloudinary("demo", "key", "secret")
	_, err := c.Upload(context.Background(), nil, "f", "n")
	assert.Error(t, err)
}

func TestUploadSurfacesAPIError(t *testing.T) {
	c := NewCloudinary("demo", "key", "secret")
	c.Client = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(bytes.NewBufferString(`{"error":{"message":"invalid signature"}}`)),
			Header:     make(http.Header),
		}, nil
	})}

	_, err := c.Upload(context.Background(), []byte("x"), "f", "n")
	assert.ErrorContains(t, err, "status 401")
}
