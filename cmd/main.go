package main

import (
	"skillswap-api/app"
)

// @title           SkillSwap API
// @version         1.0
// @description     Authentication and session service for the SkillSwap platform.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
