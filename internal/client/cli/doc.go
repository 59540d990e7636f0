// Package cli implements the interactive barbot terminal client: account
// registration, login and a multi-turn chat with the mixologist.
package cli
