package remoter

import (
	cs "github.com/kbukum/remoter/configspec"
)

// Namespace is the configuration key owned by the plugin.
const Namespace = "remoter"

// Spec returns the shape of the plugin's configuration block.
func Spec() cs.Node {
	machine := cs.NewComposite().
		Set("user", cs.Annotate(cs.NewString(), "", "User name on remote machine")).
		Set("password", cs.Annotate(cs.NewString(), "", "User password on remote machine")).
		Set("host", cs.Annotate(cs.NewString(), "", "Hostname or IP of remote machine, optionally with :port")).
		Set("port", cs.Annotate(cs.NewInteger(), "", "SSH port, 22 when omitted")).
		Set("working-dir", cs.Annotate(cs.NewString(), "", "Working directory for script execution")).
		Set("py-interpreter-path", cs.Annotate(cs.NewString(), "", "Path to python interpreter")).
		Require("user", "host", "working-dir")

	output := cs.NewComposite().
		Set("directory", cs.Annotate(cs.NewString(), "", "Directory to save results")).
		Set("file", cs.Annotate(cs.NewString(), "", "File to save results")).
		Require("file")

	item := cs.NewComposite().
		Set("script", cs.Annotate(cs.NewString(), "", "Path to script to be executed")).
		Set("requirements", cs.Annotate(cs.NewString(), "", "Path to file requirements.txt to be installed on remote machines")).
		Set("others", cs.Annotate(cs.NewArray(cs.NewString()), "Paths to files that are needed to execute the script", "")).
		Set("input-file", cs.Annotate(cs.NewString(), "", "Path to a file with input data to be shared between remote machines")).
		Set("output", output).
		Set("machines", cs.Annotate(cs.NewArray(machine), "",
			"List of configuration parameters blocks to execute script on remote machines")).
		Require("script", "input-file", "output", "machines")

	return cs.Annotate(cs.NewArray(item), "", "List of configuration parameters blocks for remoter plugin's scenario")
}
