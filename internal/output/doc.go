// Package output renders analytics and user lists to the terminal.
package output
