// File: internal/config/selectors.go
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Selectors maps each element the bot touches to an ordered list of locator
// candidates. The first candidate that matches wins; later entries are looser
// fallbacks so a UI release that rewrites ids does not strand the bot.
// Entries starting with "/", "//", ".//" or "(" are XPath, everything else
// CSS.
type Selectors struct {
	UsernameInput       []string `mapstructure:"username_input" yaml:"username_input"`
	PasswordInput       []string `mapstructure:"password_input" yaml:"password_input"`
	LoginButton         []string `mapstructure:"login_button" yaml:"login_button"`
	Sidebar             []string `mapstructure:"sidebar" yaml:"sidebar"`
	ConfiguringMenu     []string `mapstructure:"configuring_menu" yaml:"configuring_menu"`
	DPMenu              []string `mapstructure:"dp_menu" yaml:"dp_menu"`
	CityInput           []string `mapstructure:"city_input" yaml:"city_input"`
	RKInput             []string `mapstructure:"rk_input" yaml:"rk_input"`
	DPInput             []string `mapstructure:"dp_input" yaml:"dp_input"`
	FilterButton        []string `mapstructure:"filter_button" yaml:"filter_button"`
	DataRow             []string `mapstructure:"data_row" yaml:"data_row"`
	ResultCodeCell      []string `mapstructure:"result_dp_code_cell" yaml:"result_dp_code_cell"`
	NoDataMessage       []string `mapstructure:"no_data_message" yaml:"no_data_message"`
	CreateTicketIcon    []string `mapstructure:"create_ticket_icon" yaml:"create_ticket_icon"`
	FinalCreateButton   []string `mapstructure:"final_create_button" yaml:"final_create_button"`
	ConfirmCreateButton []string `mapstructure:"confirm_create_button" yaml:"confirm_create_button"`
	LoadingOverlay      []string `mapstructure:"loading_overlay" yaml:"loading_overlay"`
}

// setSelectorDefaults registers the known catalog for the current intranet
// build. Any entry can be overridden per key in the config file when the
// screen changes.
func setSelectorDefaults(v *viper.Viper) {
	v.SetDefault("selectors.username_input", []string{
		"/html/body/div[1]/div/div/div[1]/div[1]/div/form/div[1]/div/input",
		"input[type='text']",
		"input[name='username']",
		"#username",
	})
	v.SetDefault("selectors.password_input", []string{
		"/html/body/div[1]/div/div/div[1]/div[1]/div/form/div[2]/div/input",
		"input[type='password']",
		"input[name='password']",
		"#password",
	})
	v.SetDefault("selectors.login_button", []string{
		"#App > div > div.col-lg-5.d-flex.align-items-center.justify-content-center > div > form > div.my-3 > button",
		"button[type='submit']",
		".btn-primary",
	})
	v.SetDefault("selectors.sidebar", []string{"#sidebar"})
	v.SetDefault("selectors.configuring_menu", []string{
		"#sidebar > ul > li:nth-child(3) > ul > li:nth-child(1) > a",
		"a[href*='configuring']",
	})
	v.SetDefault("selectors.dp_menu", []string{
		"#menu_0_1 > ul > li:nth-child(4) > a",
		"a[href*='dp']",
	})
	v.SetDefault("selectors.city_input", []string{
		"#vs1__combobox > div.vs__selected-options > input",
		"[id*='vs1'] input",
		".vs__search",
	})
	v.SetDefault("selectors.rk_input", []string{
		"#vs2__combobox > div.vs__selected-options > input",
		"[id*='vs2'] input",
	})
	v.SetDefault("selectors.dp_input", []string{
		"#vs3__combobox > div.vs__selected-options > input",
		"[id*='vs3'] input",
	})
	v.SetDefault("selectors.filter_button", []string{
		"#dp_comp > div > div > div:nth-child(9) > div > a.btn.btn-primary",
		".btn-primary",
		"button[type='submit']",
	})
	v.SetDefault("selectors.data_row", []string{
		"#lists_dp > tbody > tr",
		"tbody tr",
	})
	v.SetDefault("selectors.result_dp_code_cell", []string{
		"#lists_dp > tbody > tr:first-child > td:nth-child(2)",
		"tbody tr:first-child td:nth-child(2)",
	})
	v.SetDefault("selectors.no_data_message", []string{
		"//td[contains(text(),'No data available in table')]",
		"//td[contains(text(),'No data')]",
		".dataTables_empty",
	})
	v.SetDefault("selectors.create_ticket_icon", []string{
		"#lists_dp > tbody > tr:first-child > td:nth-child(9) > a.btn.btn-success.btn-action > i",
		"tbody tr:first-child .btn-success i",
		".btn-success",
	})
	v.SetDefault("selectors.final_create_button", []string{
		"#dp_comp > div > div > div.v--modal-overlay.scrollable > div > div.v--modal-box.v--modal > div.modal-body.card.border-gradient-mask2 > div > div > div > div.row.justify-content-center > div > a",
		".modal-body .btn-primary",
		".v--modal .btn",
	})
	v.SetDefault("selectors.confirm_create_button", []string{
		"body > div.swal2-container.swal2-center.swal2-backdrop-show > div > div.swal2-actions > button.swal2-confirm.swal2-styled",
		".swal2-confirm",
		".swal2-styled",
	})
	v.SetDefault("selectors.loading_overlay", []string{
		"div.vld-background",
		".loading",
		".overlay",
	})
}

// Validate ensures every catalog entry has at least one candidate.
func (s Selectors) Validate() error {
	entries := []struct {
		key  string
		list []string
	}{
		{"selectors.username_input", s.UsernameInput},
		{"selectors.password_input", s.PasswordInput},
		{"selectors.login_button", s.LoginButton},
		{"selectors.sidebar", s.Sidebar},
		{"selectors.configuring_menu", s.ConfiguringMenu},
		{"selectors.dp_menu", s.DPMenu},
		{"selectors.city_input", s.CityInput},
		{"selectors.rk_input", s.RKInput},
		{"selectors.dp_input", s.DPInput},
		{"selectors.filter_button", s.FilterButton},
		{"selectors.data_row", s.DataRow},
		{"selectors.result_dp_code_cell", s.ResultCodeCell},
		{"selectors.no_data_message", s.NoDataMessage},
		{"selectors.create_ticket_icon", s.CreateTicketIcon},
		{"selectors.final_create_button", s.FinalCreateButton},
		{"selectors.confirm_create_button", s.ConfirmCreateButton},
		{"selectors.loading_overlay", s.LoadingOverlay},
	}
	for _, e := range entries {
		if len(e.list) == 0 {
			return fmt.Errorf("%s must list at least one selector", e.key)
		}
	}
	return nil
}
