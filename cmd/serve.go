package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	"github.com/flowmesh/a2a-go/pkg/executor"
	"github.com/flowmesh/a2a-go/pkg/service"
	"github.com/flowmesh/a2a-go/pkg/stores"
	"github.com/flowmesh/a2a-go/pkg/transport"
)

var (
	portFlag int
	hostFlag string
	agentKey string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve an A2A agent over HTTP",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveAgent()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 3210, "port to serve on")
	serveCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "host address to bind to")
	serveCmd.Flags().StringVarP(&agentKey, "agent", "a", "default", "agent.<key> section of the config to serve")
}

// serveAgent wires the in-memory task store and the reference Echo
// executor behind a transport.Server.
func serveAgent() error {
	card := a2a.NewAgentCardFromConfig(agentKey)

	url := fmt.Sprintf("http://%s:%d", publicHost(), portFlag)
	card.SupportedInterfaces = []a2a.AgentInterface{{
		URL:             url,
		ProtocolBinding: a2a.ProtocolBindingJSONRPC,
		ProtocolVersion: a2a.DefaultProtocolVersion,
	}}

	log.Info("starting a2a agent server", "url", url, "agent", card.Name)

	handler := service.NewRequestHandler(stores.NewInMemoryTaskStore(), executor.Echo{})
	srv := transport.NewServer(*card, handler)

	addr := fmt.Sprintf("%s:%d", hostFlag, portFlag)
	return srv.Listen(addr)
}

// publicHost returns the host agents should use to reach this server,
// preferring the configured advertise host over the bind address when
// the bind address is the wildcard.
func publicHost() string {
	if hostFlag == "0.0.0.0" || hostFlag == "" {
		if h := viper.GetString("agent.advertiseHost"); h != "" {
			return h
		}
		return "localhost"
	}
	return hostFlag
}

var longServe = `
Serve an A2A agent over HTTP.

Examples:
  # Serve the default agent on port 3210
  a2a-go serve

  # Serve a different agent config section on a custom port
  a2a-go serve --agent planner --port 8080
`
