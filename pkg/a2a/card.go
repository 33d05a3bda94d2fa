package a2a

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/viper"
)

// ProtocolBinding names the transport binding a supported interface speaks.
type ProtocolBinding string

const ProtocolBindingJSONRPC ProtocolBinding = "JSONRPC"

// DefaultProtocolVersion is the protocol version this library speaks when
// a caller does not pin a specific one.
const DefaultProtocolVersion = "0.3"

// AgentInterface is one endpoint through which an agent can be reached,
// paired with the wire protocol it speaks there.
type AgentInterface struct {
	URL             string          `json:"url"`
	ProtocolBinding ProtocolBinding `json:"protocolBinding"`
	ProtocolVersion string          `json:"protocolVersion"`
	Tenant          *string         `json:"tenant,omitempty"`
}

// AgentProvider names the organization behind an agent.
type AgentProvider struct {
	Organization string  `json:"organization"`
	URL          *string `json:"url,omitempty"`
}

// AgentSkill advertises one capability an agent exposes.
type AgentSkill struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	Examples             []string `json:"examples,omitempty"`
	InputModes           []string `json:"inputModes,omitempty"`
	OutputModes          []string `json:"outputModes,omitempty"`
	SecurityRequirements []string `json:"securityRequirements,omitempty"`
}

// MCPTool adapts a skill to an MCP tool descriptor so an embedding host
// can expose A2A skills through the Model Context Protocol.
func (skill AgentSkill) MCPTool() *mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(skill.Description)}

	tool := mcp.NewTool(skill.ID, opts...)
	return &tool
}

// SecurityScheme declares one authentication mechanism an agent accepts.
// The runtime never validates against this; it is advertisement only.
// Extra carries scheme fields this library has no typed knowledge of
// (bearerFormat, openIdConnectUrl, flows, ...) so a card survives a
// decode/encode round-trip without shedding them.
type SecurityScheme struct {
	Type   string         `json:"type"`
	Scheme string         `json:"scheme,omitempty"`
	Extra  map[string]any `json:"-"`
}

func (s SecurityScheme) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["type"] = s.Type
	if s.Scheme != "" {
		out["scheme"] = s.Scheme
	}
	return json.Marshal(out)
}

func (s *SecurityScheme) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if t, ok := raw["type"].(string); ok {
		s.Type = t
	}
	if scheme, ok := raw["scheme"].(string); ok {
		s.Scheme = scheme
	}

	delete(raw, "type")
	delete(raw, "scheme")
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

/*
AgentCard is the machine-readable description of an agent's identity,
endpoints, and capabilities, published at /.well-known/agent.json.
*/
type AgentCard struct {
	Name                 string                    `json:"name"`
	Description          string                    `json:"description,omitempty"`
	Version              string                    `json:"version"`
	SupportedInterfaces  []AgentInterface          `json:"supportedInterfaces"`
	Capabilities         []string                  `json:"capabilities,omitempty"`
	DefaultInputModes    []string                  `json:"defaultInputModes,omitempty"`
	DefaultOutputModes   []string                  `json:"defaultOutputModes,omitempty"`
	Skills               []AgentSkill              `json:"skills"`
	Provider             *AgentProvider            `json:"provider,omitempty"`
	DocumentationURL     string                    `json:"documentationUrl,omitempty"`
	IconURL              string                    `json:"iconUrl,omitempty"`
	SecuritySchemes      map[string]SecurityScheme `json:"securitySchemes,omitempty"`
	SecurityRequirements []string                  `json:"securityRequirements,omitempty"`
	Signatures           []string                  `json:"signatures,omitempty"`
}

// ResolveInterface selects the first supported interface whose binding is
// JSON-RPC and whose protocol version is compatible, per the client
// façade's card-resolution rule.
func (card *AgentCard) ResolveInterface(compatibleVersions ...string) (*AgentInterface, error) {
	if len(compatibleVersions) == 0 {
		compatibleVersions = []string{DefaultProtocolVersion}
	}

	for i := range card.SupportedInterfaces {
		iface := card.SupportedInterfaces[i]
		if iface.ProtocolBinding != ProtocolBindingJSONRPC {
			continue
		}
		for _, v := range compatibleVersions {
			if iface.ProtocolVersion == v {
				return &iface, nil
			}
		}
	}

	return nil, fmt.Errorf("a2a: no compatible JSON-RPC interface advertised")
}

func NewAgentCardFromConfig(key string) *AgentCard {
	log.Info("new agent card from config", "key", key)

	v := viper.GetViper()
	skillKeys := v.GetStringSlice(fmt.Sprintf("agent.%s.skills", key))

	skills := make([]AgentSkill, len(skillKeys))
	for i, skillKey := range skillKeys {
		skills[i] = newSkillFromConfig(skillKey)
	}

	return &AgentCard{
		Name:        v.GetString(fmt.Sprintf("agent.%s.name", key)),
		Description: v.GetString(fmt.Sprintf("agent.%s.description", key)),
		Version:     v.GetString(fmt.Sprintf("agent.%s.version", key)),
		SupportedInterfaces: []AgentInterface{
			{
				URL:             v.GetString(fmt.Sprintf("agent.%s.url", key)),
				ProtocolBinding: ProtocolBindingJSONRPC,
				ProtocolVersion: DefaultProtocolVersion,
			},
		},
		Capabilities: v.GetStringSlice(fmt.Sprintf("agent.%s.capabilities", key)),
		Provider: &AgentProvider{
			Organization: v.GetString(fmt.Sprintf("agent.%s.provider.organization", key)),
			URL:          strPtr(v.GetString(fmt.Sprintf("agent.%s.provider.url", key))),
		},
		DocumentationURL: v.GetString(fmt.Sprintf("agent.%s.documentationUrl", key)),
		Skills:           skills,
	}
}

func newSkillFromConfig(key string) AgentSkill {
	v := viper.GetViper()

	return AgentSkill{
		ID:          v.GetString(fmt.Sprintf("skills.%s.id", key)),
		Name:        v.GetString(fmt.Sprintf("skills.%s.name", key)),
		Description: v.GetString(fmt.Sprintf("skills.%s.description", key)),
		Tags:        v.GetStringSlice(fmt.Sprintf("skills.%s.tags", key)),
		Examples:    v.GetStringSlice(fmt.Sprintf("skills.%s.examples", key)),
		InputModes:  v.GetStringSlice(fmt.Sprintf("skills.%s.input_modes", key)),
		OutputModes: v.GetStringSlice(fmt.Sprintf("skills.%s.output_modes", key)),
	}
}

func (card *AgentCard) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)

	indent := "   "
	bullet := "│ "

	sb.WriteString(headerStyle.Render("Agent Card") + "\n")
	sb.WriteString(bullet + labelStyle.Render("Name: ") + valueStyle.Render(card.Name) + "\n")
	if card.Description != "" {
		sb.WriteString(bullet + labelStyle.Render("Description: ") + valueStyle.Render(card.Description) + "\n")
	}
	sb.WriteString(bullet + labelStyle.Render("Version: ") + valueStyle.Render(card.Version) + "\n")

	if card.Provider != nil {
		sb.WriteString("\n" + sectionStyle.Render("Provider") + "\n")
		sb.WriteString(bullet + labelStyle.Render("Organization: ") + valueStyle.Render(card.Provider.Organization) + "\n")
	}

	if len(card.SupportedInterfaces) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Interfaces") + "\n")
		for _, iface := range card.SupportedInterfaces {
			sb.WriteString(bullet + labelStyle.Render(string(iface.ProtocolBinding)+" "+iface.ProtocolVersion+": ") + valueStyle.Render(iface.URL) + "\n")
		}
	}

	if len(card.Capabilities) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Capabilities") + "\n")
		sb.WriteString(bullet + valueStyle.Render(strings.Join(card.Capabilities, ", ")) + "\n")
	}

	if len(card.Skills) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Skills") + "\n")
		for i, skill := range card.Skills {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Skill %d", i+1)) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("ID: ") + valueStyle.Render(skill.ID) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("Name: ") + valueStyle.Render(skill.Name) + "\n")
			if len(skill.Tags) > 0 {
				sb.WriteString(bullet + indent + labelStyle.Render("Tags: ") + valueStyle.Render(strings.Join(skill.Tags, ", ")) + "\n")
			}
		}
	}

	return sb.String()
}
