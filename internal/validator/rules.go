package validator

import (
	"github.com/go-playground/validator/v10"

	"artlink_backend/internal/models"
)

// registerCustomRules installs the media-domain rules. Registration
// only fails on nil functions or empty tags, so a failure here is a
// programming error worth panicking on at startup.
func registerCustomRules(v *validator.Validate) {
	mustRegister(v, "is-media-type", func(fl validator.FieldLevel) bool {
		switch models.MediaType(fl.Field().String()) {
		case models.MediaTypeImage, models.MediaTypeVideo, models.MediaTypeAudio:
			return true
		}
		return false
	})

	mustRegister(v, "is-media-source", func(fl validator.FieldLevel) bool {
		switch models.MediaSource(fl.Field().String()) {
		case models.MediaSourceUpload, models.MediaSourceYouTube,
			models.MediaSourceVimeo, models.MediaSourceMux,
			models.MediaSourceOtherURL, models.MediaSourceSpotify,
			models.MediaSourceSoundCloud:
			return true
		}
		return false
	})

	mustRegister(v, "is-platform-key", func(fl validator.FieldLevel) bool {
		return models.KnownPlatform(fl.Field().String())
	})
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validator: register " + tag + ": " + err.Error())
	}
}
