package config

import "time"

type Config struct {
	// Device selects the transport: "serial" or "file". Setting Playback
	// locations forces "file".
	Device     string `yaml:"device"`
	OutputFile string `yaml:"output_file"`

	Serial struct {
		LeftPort  string `yaml:"left_port"`
		RightPort string `yaml:"right_port"`
		BaudRate  int    `yaml:"baud_rate"`
	} `yaml:"serial"`

	Playback struct {
		Left      string        `yaml:"left"`
		Right     string        `yaml:"right"`
		ReadSize  int           `yaml:"read_size"`
		ReadDelay time.Duration `yaml:"read_delay"`
	} `yaml:"playback"`

	Retry struct {
		Attempts int           `yaml:"attempts"`
		Backoff  time.Duration `yaml:"backoff"`
	} `yaml:"retry"`

	StatusServer struct {
		Port int `yaml:"port"`
	} `yaml:"status_server"`

	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	}
}
