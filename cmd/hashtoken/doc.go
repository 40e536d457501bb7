// Command hashtoken creates and checks the access token hash used to protect
// the photo library API.
//
// Usage:
//
//	hashtoken <command>
//
// Commands:
//
//	hash    Prompt twice for a token and print its bcrypt hash. Tokens
//	        must be at least 12 characters.
//
//	verify  Prompt for a token and report whether it matches the hash in
//	        ACCESS_TOKEN_HASH.
//
// The server stores only the hash. Clients send the token itself as a
// Bearer header or an access_token query parameter.
package main
