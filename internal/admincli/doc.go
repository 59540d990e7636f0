// Package admincli implements barbotctl, the operator tool for managing
// accounts directly in the store: listing users, toggling the disabled
// flag and creating accounts with a password typed at the terminal.
//
// Usage:
//
//	barbotctl [-d DSN] [-c config.json] [-env .env] <command> [args]
//
//	list [-offset N] [-limit N]
//	disable <username>
//	enable <username>
//	create-user <username> <email> [-full-name NAME]
package admincli
