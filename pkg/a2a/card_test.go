package a2a

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func testCard() AgentCard {
	return AgentCard{
		Name:    "test-agent",
		Version: "0.1.0",
		SupportedInterfaces: []AgentInterface{
			{URL: "grpc://agent.example:50051", ProtocolBinding: "GRPC", ProtocolVersion: DefaultProtocolVersion},
			{URL: "http://agent.example/a2a", ProtocolBinding: ProtocolBindingJSONRPC, ProtocolVersion: DefaultProtocolVersion},
			{URL: "http://agent.example/v2", ProtocolBinding: ProtocolBindingJSONRPC, ProtocolVersion: "0.2"},
		},
		Capabilities:       []string{"streaming"},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []AgentSkill{
			{ID: "echo", Name: "Echo", Description: "Replies with the text it was sent", Tags: []string{"demo"}},
		},
	}
}

func TestAgentCardRoundTrip(t *testing.T) {
	Convey("Given an agent card with interfaces and skills", t, func() {
		card := testCard()

		Convey("When it round-trips through JSON", func() {
			raw, err := json.Marshal(card)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"supportedInterfaces"`)
			So(string(raw), ShouldContainSubstring, `"protocolBinding":"JSONRPC"`)

			var decoded AgentCard
			So(json.Unmarshal(raw, &decoded), ShouldBeNil)

			Convey("Then it is semantically equal", func() {
				So(decoded.Name, ShouldEqual, card.Name)
				So(len(decoded.SupportedInterfaces), ShouldEqual, 3)
				So(len(decoded.Skills), ShouldEqual, 1)
				So(decoded.Skills[0].ID, ShouldEqual, "echo")
			})
		})
	})
}

func TestSecuritySchemeKeepsExtraFields(t *testing.T) {
	Convey("Given a scheme JSON with fields beyond type and scheme", t, func() {
		raw := []byte(`{"type":"http","scheme":"bearer","bearerFormat":"JWT"}`)

		Convey("When it round-trips through SecurityScheme", func() {
			var scheme SecurityScheme
			So(json.Unmarshal(raw, &scheme), ShouldBeNil)
			So(scheme.Type, ShouldEqual, "http")
			So(scheme.Scheme, ShouldEqual, "bearer")
			So(scheme.Extra["bearerFormat"], ShouldEqual, "JWT")

			reencoded, err := json.Marshal(scheme)
			So(err, ShouldBeNil)

			Convey("Then the extra fields survive re-encoding", func() {
				So(string(reencoded), ShouldContainSubstring, `"bearerFormat":"JWT"`)
				So(string(reencoded), ShouldContainSubstring, `"type":"http"`)
			})
		})
	})
}

func TestAgentCardResolveInterface(t *testing.T) {
	Convey("Given a card advertising several interfaces", t, func() {
		card := testCard()

		Convey("When resolving with the default version", func() {
			iface, err := card.ResolveInterface()

			Convey("Then the first compatible JSON-RPC interface wins", func() {
				So(err, ShouldBeNil)
				So(iface.URL, ShouldEqual, "http://agent.example/a2a")
			})
		})

		Convey("When resolving with an older compatible version", func() {
			iface, err := card.ResolveInterface("0.2")

			So(err, ShouldBeNil)
			So(iface.URL, ShouldEqual, "http://agent.example/v2")
		})

		Convey("When no interface speaks a compatible version", func() {
			_, err := card.ResolveInterface("9.9")

			Convey("Then resolution fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
