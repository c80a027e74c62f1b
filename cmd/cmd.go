// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the song request server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the song request server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-auto-shutdown",
				Usage: "Keep running while the player is unreachable",
			},
			&cli.BoolFlag{
				Name:  "no-qr",
				Usage: "Do not print the QR code on startup",
			},
		},
		Action: r.with(r.Serve),
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.with(r.SetupDatabase),
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// playerCommand handles direct player operations
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"pl"},
		Usage:   "Inspect and control the player",
		Commands: []*cli.Command{
			{
				Name:  "queue",
				Usage: "Show the player queue",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv, markdown",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the queue to a file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.with(r.PlayerQueue),
			},
			{
				Name:  "now",
				Usage: "Show the current song",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.with(r.PlayerNow),
			},
			{
				Name:  "add",
				Usage: "Add a song to the end of the queue",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "videoId"},
				},
				Action: r.with(r.PlayerAdd),
			},
			{
				Name:  "remove",
				Usage: "Remove the song at a queue index",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "index"},
				},
				Action: r.with(r.PlayerRemove),
			},
			{
				Name:  "control",
				Usage: "Send a transport action: play, pause, next, previous, toggle-play",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "action"},
				},
				Action: r.with(r.PlayerControl),
			},
			{
				Name:  "volume",
				Usage: "Show the volume, or set it when a level (0-100) is given",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "level"},
				},
				Action: r.with(r.PlayerVolume),
			},
			{
				Name:  "seek",
				Usage: "Seek the current song to a position in seconds",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "seconds"},
				},
				Action: r.with(r.PlayerSeek),
			},
			{
				Name:   "status",
				Usage:  "Check whether the player answers",
				Action: r.with(r.PlayerStatus),
			},
			{
				Name:  "dump",
				Usage: "Dump reachability, current song, queue and volume",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Save the dump to a file",
					},
				},
				Action: r.with(r.PlayerDump),
			},
			{
				Name:   "raw",
				Usage:  "Print the undecoded queue payload",
				Action: r.with(r.PlayerRaw),
			},
		},
	}
}

// searchCommand searches the search proxy
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for songs",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results (defaults to the configured limit)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "enqueue",
				Usage: "Add the first result to the queue",
			},
		},
		Action: r.with(r.Search),
	}
}

// userCommand handles stored listener profiles
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage listener history and likes",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List nicknames with stored profiles",
				Action: r.with(r.UserList),
			},
			{
				Name:      "history",
				Usage:     "Show a listener's history, most recent first",
				Arguments: nicknameArg(),
				Flags:     jsonFlag(),
				Action:    r.with(r.UserHistory),
			},
			{
				Name:      "likes",
				Usage:     "Show a listener's liked songs",
				Arguments: nicknameArg(),
				Flags:     jsonFlag(),
				Action:    r.with(r.UserLikes),
			},
			{
				Name:  "like",
				Usage: "Like a song for a listener",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "nickname"},
					&cli.StringArg{Name: "videoId"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Song title"},
					&cli.StringFlag{Name: "artist", Usage: "Song artist"},
				},
				Action: r.with(r.UserLike),
			},
			{
				Name:  "unlike",
				Usage: "Remove a liked song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "nickname"},
					&cli.StringArg{Name: "videoId"},
				},
				Action: r.with(r.UserUnlike),
			},
			{
				Name:      "clear",
				Usage:     "Clear a listener's history",
				Arguments: nicknameArg(),
				Action:    r.with(r.UserClear),
			},
			{
				Name:      "recommend",
				Usage:     "Recommend songs from a listener's history and likes",
				Arguments: nicknameArg(),
				Flags:     jsonFlag(),
				Action:    r.with(r.UserRecommend),
			},
		},
	}
}

// qrCommand renders the join QR code
func qrCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "qr",
		Usage: "Print the QR code for the server URL, or for the given URL",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "png",
				Usage: "Write a PNG to this path instead of printing",
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "PNG size in pixels",
				Value: 256,
			},
		},
		Action: r.with(r.QR),
	}
}

// tuiCommand returns the top-level TUI command for the player dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"dashboard", "ui"},
		Usage:   "Launch the interactive player dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the dashboard is open",
				Value: "./tmp/songreq-tui.log",
			},
		},
		Action: r.with(r.TUI),
	}
}

func nicknameArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "nickname"}}
}

func jsonFlag() []cli.Flag {
	return []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}}
}
