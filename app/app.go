package app

import (
	"github.com/mbolis/survey-intake/config"
	"github.com/mbolis/survey-intake/survey"
)

// App is everything a request handler needs. It is built once in main.
type App struct {
	*survey.Builder
	config.Config
}
