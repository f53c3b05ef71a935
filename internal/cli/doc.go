// Package cli contains the adminsync cobra commands.
package cli
