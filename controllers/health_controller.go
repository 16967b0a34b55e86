package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/docqa/utils"
)

// Health reports liveness. It touches no dependency.
func Health(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"status": "ok"})
}
