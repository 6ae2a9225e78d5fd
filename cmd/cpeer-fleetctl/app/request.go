package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/protocol"
)

type requestOptions struct {
	Server string
	ID     string
}

func newRequestCommand(root *rootOptions) *cobra.Command {
	opts := &requestOptions{
		Server: "ws://127.0.0.1:3000/",
	}
	cmd := &cobra.Command{
		Use:   "request COMMAND [ARG...]",
		Short: "Connect as a vehicle and send one command",
		Example: `  cpeer-fleetctl request --id AAA getActive
  cpeer-fleetctl request --id AAA getID AAA BBB -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), root.Timeout)
			defer cancel()

			response, err := request(ctx, opts, args)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), root.Output, response)
		},
	}
	cmd.Flags().StringVar(&opts.Server, "server", opts.Server, "Websocket URL of the hub.")
	cmd.Flags().StringVar(&opts.ID, "id", opts.ID, "Vehicle ID to authenticate as.")
	return cmd
}

// request authenticates as opts.ID, sends args and returns the response payload.
func request(ctx context.Context, opts *requestOptions, args []string) (json.RawMessage, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, opts.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", opts.Server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	if err := conn.WriteJSON(envelope(protocol.EventAuth, protocol.Handshake{ID: opts.ID})); err != nil {
		return nil, err
	}
	reply, err := readEnvelope(conn)
	if err != nil {
		return nil, err
	}
	if reply.Event != protocol.EventConnected {
		return nil, remoteError(reply)
	}
	log.Debug("Authenticated", "vehicleID", opts.ID)

	if err := conn.WriteJSON(envelope(protocol.EventRequest, args)); err != nil {
		return nil, err
	}
	if reply, err = readEnvelope(conn); err != nil {
		return nil, err
	}
	if reply.Event != protocol.EventResponse {
		return nil, remoteError(reply)
	}

	var resp protocol.Response
	if err := json.Unmarshal(reply.Data, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return resp.Response, nil
}

func envelope(event string, data any) protocol.Envelope {
	env, _ := protocol.NewEnvelope(event, data)
	return env
}

func readEnvelope(conn *websocket.Conn) (protocol.Envelope, error) {
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return protocol.Envelope{}, fmt.Errorf("reading from hub: %w", err)
	}
	return protocol.Decode(frame)
}

func remoteError(env protocol.Envelope) error {
	var msg string
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		msg = string(env.Data)
	}
	if msg == "" {
		return errors.New(env.Event)
	}
	return fmt.Errorf("%s: %s", env.Event, msg)
}
