package config

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adds scheme and slash", "example.com", "http://example.com/"},
		{"keeps https", "https://example.com/app", "https://example.com/app/"},
		{"already normalized", "http://example.com/app/", "http://example.com/app/"},
		{"keeps port", "http://example.com:8080", "http://example.com:8080/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Options{URL: tt.in}
			o.Normalize()
			assert.Equal(t, tt.want, o.URL)
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	o := &Options{URL: "http://x"}
	o.Normalize()
	assert.Equal(t, 1, o.Threads)
	assert.Equal(t, 1, o.QueueSize)
	assert.Equal(t, DefaultSendTimeout, o.SendTimeout)
	assert.Equal(t, "text", o.OutputFormat)
}

func TestValidateOK(t *testing.T) {
	o := &Options{URL: "http://example.com/", IgnoreCodes: []int{404}, OutputFormat: "json", SortBy: "status"}
	assert.NoError(t, o.Validate())
}

func TestValidateAggregates(t *testing.T) {
	o := &Options{
		URL:           "",
		Delay:         -time.Second,
		IgnoreCodes:   []int{42},
		IncludeStatus: []int{200},
		Password:      "secret",
		OutputFormat:  "xml",
	}
	err := o.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 6)
	assert.Contains(t, err.Error(), "target URL required")
	assert.Contains(t, err.Error(), "--password requires --username")
}

func TestValidateResumeWithStdin(t *testing.T) {
	o := &Options{URL: "http://example.com/", WordlistPath: "-", ResumeFile: "scan.state"}
	assert.Error(t, o.Validate())
}
