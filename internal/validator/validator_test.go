package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=500"`
	MediaType   string `json:"media_type" validate:"required,is-media-type"`
	MediaSource string `json:"media_source" validate:"required,is-media-source"`
}

type linkInput struct {
	PlatformKey string `json:"platform_key" validate:"required,is-platform-key"`
	URL         string `json:"url" validate:"required,url"`
}

func TestValidateAcceptsWellFormedInput(t *testing.T) {
	v := New()

	err := v.Validate(workInput{
		Title:       "Mural, 2024",
		Description: "Commissioned wall piece",
		MediaType:   "image",
		MediaSource: "upload",
	})
	assert.NoError(t, err)
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(workInput{
		Title:       "",
		Description: "x",
		MediaType:   "gif",
		MediaSource: "upload",
	})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Errors, "title")
	assert.Contains(t, ve.Errors, "media_type")
	assert.NotContains(t, ve.Errors, "Title")
	assert.Equal(t, "Must be one of: image, video, audio", ve.Errors["media_type"])
}

func TestValidateMediaSourceRule(t *testing.T) {
	v := New()

	err := v.Validate(workInput{
		Title:       "t",
		Description: "d",
		MediaType:   "video",
		MediaSource: "dailymotion",
	})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Errors, "media_source")
}

func TestValidatePlatformKeyRule(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(linkInput{PlatformKey: "instagram", URL: "https://instagram.com/jane"}))

	err := v.Validate(linkInput{PlatformKey: "myspace", URL: "https://example.com"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Unknown social platform", ve.Errors["platform_key"])
}
