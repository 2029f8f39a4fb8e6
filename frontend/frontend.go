// Package frontend serves the embedded browser client.
package frontend

import (
	"embed"
	"errors"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

var ErrContentRoot = errors.New("failed to open content root")

//go:embed dist/*
var embedFS embed.FS

func AddRoutes(engine *gin.Engine) error {
	if _, errIndex := embedFS.ReadFile("dist/index.html"); errIndex != nil {
		return errors.Join(errIndex, ErrContentRoot)
	}

	folder, errFolder := static.EmbedFolder(embedFS, "dist")
	if errFolder != nil {
		return errors.Join(errFolder, ErrContentRoot)
	}

	engine.Use(static.Serve("/", folder))

	return nil
}
