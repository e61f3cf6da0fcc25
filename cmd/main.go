package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"calcsync/src/client"
	"calcsync/src/store"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "calcsync CMD"
	app.Usage = "The calcsync command line interface"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "url",
			Usage: "base URL of the calcsync service",
			Value: "http://localhost:9898",
		},
		cli.StringFlag{
			Name:   "token",
			Usage:  "bearer token",
			EnvVar: "CALCSYNC_TOKEN",
		},
	}

	app.Commands = []cli.Command{
		loginCMD,
		snapshotCMD,
		saveCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	loginCMD = cli.Command{
		Name:        "login",
		Usage:       "log in and print a bearer token",
		Action:      loginAction,
		ArgsUsage:   "USERNAME PASSWORD",
		Description: `Authenticate against the service and print the token`,
	}
	snapshotCMD = cli.Command{
		Name:        "snapshot",
		Usage:       "print the current calculator inputs",
		Action:      snapshotAction,
		ArgsUsage:   "",
		Description: `Fetch and print the current calculator record as JSON`,
	}
	saveCMD = cli.Command{
		Name:        "save",
		Usage:       "save one calculator field",
		Action:      saveAction,
		ArgsUsage:   "FIELD VALUE",
		Description: `Apply a single-field partial update`,
	}
)

func newClient(c *cli.Context) *client.Client {
	cl := client.New(c.GlobalString("url"))
	if token := c.GlobalString("token"); token != "" {
		cl.WithToken(token)
	}
	return cl
}

func loginAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: login USERNAME PASSWORD", 1)
	}

	token, err := newClient(c).Login(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		logrus.WithError(err).Error("login failed")
		return err
	}

	fmt.Println(token)
	return nil
}

func snapshotAction(c *cli.Context) error {
	inputs, err := newClient(c).GetInputs()
	if err != nil {
		logrus.WithError(err).Error("snapshot failed")
		return err
	}

	raw, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(raw))
	return nil
}

func saveAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: save FIELD VALUE", 1)
	}

	field := c.Args().Get(0)
	value, err := coerceFieldValue(field, c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	inputs, err := newClient(c).SaveRaw(map[string]interface{}{field: value})
	if err != nil {
		logrus.WithError(err).Error("save failed")
		return err
	}

	raw, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(raw))
	return nil
}

// coerceFieldValue turns the CLI string into the JSON type the API expects
// for the field.
func coerceFieldValue(field, raw string) (interface{}, error) {
	switch field {
	case "decimal_places":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer: %w", field, err)
		}
		return n, nil
	case "entry_taker", "entry_maker", "exit_taker", "exit_maker", "test_mode":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects a boolean: %w", field, err)
		}
		return b, nil
	}

	for _, name := range store.FieldNames {
		if name == field {
			return raw, nil
		}
	}

	return nil, fmt.Errorf("unknown field %q", field)
}
