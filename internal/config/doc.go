// Package config reads the player's settings from RINGPLAY_* environment
// variables. There is no configuration file and no flag parsing; the only
// command line argument is the file to play.
package config
