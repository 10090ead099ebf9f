package main

//go:generate swag init -g cmd/launchpad/main.go -o docs

// @title           Launchpad API
// @version         0.1.0
// @description     Fixed-price token-sale allocation engine: sale registry, purchases, settlement.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
