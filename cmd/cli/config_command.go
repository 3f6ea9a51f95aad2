package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	configCommandUseConstant              = "config"
	configCommandShortDescriptionConstant = "Print the effective configuration as YAML"
	configMarshalErrorTemplateConstant    = "unable to render configuration: %w"
)

// ConfigCommandBuilder assembles the config command.
type ConfigCommandBuilder struct {
	SettingsProvider func() map[string]any
}

// Build constructs the config command. It never takes the repository lock.
func (builder *ConfigCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:         configCommandUseConstant,
		Short:       configCommandShortDescriptionConstant,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{lockExemptAnnotationConstant: lockExemptAnnotationValueConstant},
		RunE:        builder.run,
	}, nil
}

func (builder *ConfigCommandBuilder) run(command *cobra.Command, _ []string) error {
	settings := map[string]any{}
	if builder.SettingsProvider != nil {
		settings = builder.SettingsProvider()
	}
	renderedConfiguration, marshalError := yaml.Marshal(settings)
	if marshalError != nil {
		return fmt.Errorf(configMarshalErrorTemplateConstant, marshalError)
	}
	_, writeError := command.OutOrStdout().Write(renderedConfiguration)
	return writeError
}
