package main

import "artlink_backend/internal/app"

func main() {
	app.Run()
}
