// Package id generates identifiers used to correlate requests in logs.
//
// Every request entering the pipeline gets an X-Request-Id unless the client
// already sent one. Ids are UUID v4 values from github.com/google/uuid.
package id
