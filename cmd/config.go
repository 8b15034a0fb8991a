package main

import "time"

type Config struct {
	EventBufferSize           int           `env:"EVENT_BUFFER_SIZE,required=true"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	SinkTimeout               time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,required=true"`
	TokenDuration             time.Duration `env:"TOKEN_DURATION,default=24h"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	IndexFilepath             string        `env:"INDEX_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
