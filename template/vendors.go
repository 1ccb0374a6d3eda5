package template

import "github.com/mvandenburg/netssh/fsm"

// Cisco builds the IOS/IOS-XE template.
func Cisco() (*fsm.Handler, error) {
	return fsm.New(fsm.Config{
		PromptGroups: []fsm.PromptGroup{
			{State: "Config", Patterns: []string{`^\S+\(\S+\)#\s*$`}},
			{State: "Enable", Patterns: []string{`^[^\s#]+#\s*$`}},
			{State: "Login", Patterns: []string{`^[^\s<]+>\s*$`}},
		},
		WriteGroups: []fsm.WriteGroup{
			{State: "EnablePassword", Pattern: `^\x00*\r(Enable )?Password:`,
				Input: fsm.InputEntry{Dynamic: true, KeyOrLiteral: "EnablePassword", RecordEcho: true}},
		},
		PaginationPatterns: []string{`\s*<--- More --->\s*`},
		ErrorPatterns: []string{
			`% Invalid command at '\^' marker\.`,
			`% Invalid parameter detected at '\^' marker\.`,
			`invalid vlan \(reserved value\) at '\^' marker\.`,
			`ERROR: VLAN \d+ is not a primary vlan`,
			`\^$`,
			`^%.+`,
			`^Command authorization failed.*`,
			`^Command rejected:.*`,
			`ERROR:.+`,
			`Invalid password`,
			`Access denied.`,
			`End address less than start address`,
		},
		Edges: []fsm.Edge{
			{From: "Login", Command: "enable", To: "Enable"},
			{From: "Enable", Command: "configure terminal", To: "Config"},
			{From: "Config", Command: "exit", To: "Enable", IsExit: true},
			{From: "Enable", Command: "exit", To: "Login", IsExit: true},
		},
		IgnoreErrorPatterns: []string{`ERROR: object \(.+\) does not exist.`},
	})
}

// Huawei builds the VRP template.
func Huawei() (*fsm.Handler, error) {
	return fsm.New(fsm.Config{
		PromptGroups: []fsm.PromptGroup{
			{State: "Config", Patterns: []string{`^(HRP_M|HRP_S){0,1}\[.+]+\s*$`}},
			{State: "Enable", Patterns: []string{`^(RBM_P|RBM_S)?<.+>\s*$`}},
		},
		WriteGroups: []fsm.WriteGroup{
			{State: "Save", Pattern: `Are you sure to continue\?\[Y\/N\]: `,
				Input: fsm.InputEntry{Dynamic: false, KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `startup saved-configuration file on peer device\?\[Y\/N\]: `,
				Input: fsm.InputEntry{Dynamic: false, KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `Warning: The current configuration will be written to the device. Continue\? \[Y\/N\]: `,
				Input: fsm.InputEntry{Dynamic: false, KeyOrLiteral: "y", RecordEcho: true}},
		},
		PaginationPatterns: []string{`\s*---- More ----\s*`},
		ErrorPatterns:      []string{`Error: .+$`, `\^$`},
		Edges: []fsm.Edge{
			{From: "Enable", Command: "system-view", To: "Config"},
			{From: "Config", Command: "exit", To: "Enable", IsExit: true},
		},
		IgnoreErrorPatterns: []string{
			`Error: Address item conflicts!`,
			`Error: The address item does not exist!`,
			`Error: The delete configuration does not exist.`,
			`Error: The address or address set is not created!`,
			`Error: Cannot add! Service item conflicts or illegal reference!`,
			`Error: The service item does not exist!`,
			`Error: Service item conflicts!`,
			`Error: The service set is not created(.+)!`,
			`Error: No such a time-range.`,
			`Error: The specified address-group does not exist.`,
			`Error: The specified rule does not exist yet.`,
			`This condition has already been configured`,
			`[a-zA-Z]* (item conflicts|Service item exists\.)`,
			`Error: Worng parameter found at.*`,
		},
	})
}

// H3C builds the Comware template.
func H3C() (*fsm.Handler, error) {
	return fsm.New(fsm.Config{
		PromptGroups: []fsm.PromptGroup{
			{State: "Config", Patterns: []string{`^(RBM_P|RBM_S)?\[.+\]\s*$`}},
			{State: "Enable", Patterns: []string{`^(RBM_P|RBM_S)?<.+>\s*$`}},
		},
		PaginationPatterns: []string{`\s*---- More ----\s*`},
		ErrorPatterns: []string{
			`.+\^.+`,
			`.+%.+`,
			`.+doesn't exist.+`,
			`.+does not exist.+`,
			`Object group with given name exists with different type.`,
		},
		Edges: []fsm.Edge{
			{From: "Enable", Command: "system-view", To: "Config"},
			{From: "Config", Command: "exit", To: "Enable", IsExit: true},
		},
	})
}

// Hillstone builds the SG template.
func Hillstone() (*fsm.Handler, error) {
	return fsm.New(fsm.Config{
		PromptGroups: []fsm.PromptGroup{
			{State: "Enable", Patterns: []string{`^.+#\s\r{0,1}$`}},
			{State: "Config", Patterns: []string{`^.+\(config.*\)\s*#\s\r{0,1}$`}},
		},
		WriteGroups: []fsm.WriteGroup{
			{State: "Save", Pattern: `Save configuration, are you sure\? \[y\]\/n: `, Input: fsm.InputEntry{KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `Save configuration for all VSYS, are you sure\? \[y\]\/n: `, Input: fsm.InputEntry{KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `Backup start configuration file, are you sure\? y\/\[n\]: `, Input: fsm.InputEntry{KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `Backup all start configuration files, are you sure\? y\/\[n\]: `, Input: fsm.InputEntry{KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `保存配置，请确认 \[y\]\/n: `, Input: fsm.InputEntry{KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `备份启动配置文件，请确认 y\/\[n\]: `, Input: fsm.InputEntry{KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `保存所有VSYS的配置，请确认 \[y\]\/n: `, Input: fsm.InputEntry{KeyOrLiteral: "y", RecordEcho: true}},
			{State: "Save", Pattern: `备份所有启动配置文件，请确认 y\/\[n\]: `, Input: fsm.InputEntry{KeyOrLiteral: "y", RecordEcho: true}},
		},
		PaginationPatterns: []string{`\s*--More--\s*`},
		ErrorPatterns: []string{
			`.+\^.+`,
			`.+%.+`,
			`.+doesn't exist.+`,
			`.+does not exist.+`,
			`Object group with given name exists with different type.`,
		},
		Edges: []fsm.Edge{
			{From: "Enable", Command: "config", To: "Config"},
			{From: "Config", Command: "exit", To: "Enable", IsExit: true},
		},
		IgnoreErrorPatterns: []string{
			`Error: Schedule entity (.+) is not found`,
			`错误：没有找到时间表(.+)`,
			`Error: Failed to find this service`,
			`错误: 无法找到服务`,
			`Error: Rule (\d+) is not found$`,
			`错误：规则(\d+)不存在`,
			`Error: This service already exists`,
			`错误：该服务已经添加`,
			`Error: Rule is already configured with schedule (.+)`,
			`错误：此规则已经配置了时间表"(.+)"`,
			`Error: Rule is not configured with schedule (.+)`,
			`错误：此规则没有配置了时间表"(.+)"`,
			`Error: This entity is already added`,
			`错误：该项已经添加`,
			`Error: This entity already exists`,
			`错误: 该成员已经存在`,
			`Error: Cannot find this service entity`,
			`错误：查找该服务条目失败!`,
			`Error: Address entry (.+) has no member (.+)`,
			`错误：地址条目(.+)没有成员(.+)`,
			`Error: Address (.+) is not found`,
			`错误：地址簿(.+)没有找到`,
			`Error: Deleting a service not configured`,
			`错误：尝试删除一个没有配置的服务`,
		},
	})
}

// Juniper builds the JunOS template.
func Juniper() (*fsm.Handler, error) {
	return fsm.New(fsm.Config{
		PromptGroups: []fsm.PromptGroup{
			{State: "Config", Patterns: []string{`^\S+@\S+#\s*$`}},
			{State: "Enable", Patterns: []string{`^\S+@\S+>\s*$`}},
		},
		WriteGroups: []fsm.WriteGroup{
			{State: "Save", Pattern: `Exit with uncommitted changes\? \[yes,no\] \(yes\) `,
				Input: fsm.InputEntry{KeyOrLiteral: "yes", RecordEcho: true}},
		},
		PaginationPatterns: []string{`---\(more.*\)---`},
		ErrorPatterns: []string{
			`.*unknown command.*`,
			`syntax error.*`,
			`error:.+`,
			`.+not found.*`,
			`invalid value .+`,
			`invalid ip address .+`,
			`.*invalid prefix length .+`,
			`prefix length \S+ is larger than \d+ .+`,
			`number: \S+: Value must be a number from 0 to 255 at \S+`,
			`\s+\^$`,
		},
		Edges: []fsm.Edge{
			{From: "Enable", Command: "system-view", To: "Config"},
			{From: "Config", Command: "exit", To: "Enable", IsExit: true},
		},
		IgnoreErrorPatterns: []string{
			`warning: statement not found`,
			`warning: element \S+ not found`,
		},
	})
}

// Array builds the Array Networks APV template, the only built-in
// template with a cyclic sys-context (VSite) graph.
func Array() (*fsm.Handler, error) {
	return fsm.New(fsm.Config{
		PromptGroups: []fsm.PromptGroup{
			{State: "Login", Patterns: []string{`^[^\s<]+>\s*$`}},
			{State: "Enable", Patterns: []string{`^[^\s#]+#\s*$`}},
			{State: "Config", Patterns: []string{`^\S+\(\S+\)#\s*$`}},
		},
		SysPromptGroups: []fsm.SysPromptGroup{
			{State: "VSiteConfig", CaptureName: "VS", Pattern: `^(?P<VS>\S+)\(\S+\)\$\s*$`},
			{State: "VSiteEnable", CaptureName: "VS", Pattern: `^(?P<VS>\S+)\$\s*$`},
		},
		WriteGroups: []fsm.WriteGroup{
			{State: "EnablePassword", Pattern: `^\x00*\rEnable password:`,
				Input: fsm.InputEntry{Dynamic: true, KeyOrLiteral: "EnablePassword", RecordEcho: true}},
		},
		PaginationPatterns: []string{`\s*--More--\s*`},
		ErrorPatterns: []string{
			`Virtual site .+ is not configured`,
			`Access denied!`,
			`Cannot find the group name '.+'\.`,
			`No such group map configured: ".+" to ".+"\.`,
			`Internal group ".+" not found, please configure the group at localdb\.`,
			`Already has a group map for external group ".+"\.`,
			`role ".+" doesn't exist`,
			`qualification ".+" doesn't exist`,
			`the condition "GROUPNAME IS '.+'" doesn't exist in qualification ".+", role ".+"`,
			`The resource ".+" has not been assigned to this role`,
			`Netpool .+ does not exist`,
			`Resource group .+ does not exist`,
			`Cannot find the resource group '.+'\.`,
			`This resource group name has been used, please give another one\.`,
			`This resource .+ doesn't exist or hasn't assigned to target .+`,
			`Parse network resource failed: Invalid port format\.`,
			`Parse network resource failed: Invalid ACL format\.`,
			`Parse network resource failed: ICMP protocol resources MUST NOT with port information\.`,
			`The resource ".+" does not exsit under resource group ".+"`,
			`\^$`,
		},
		Edges: []fsm.Edge{
			{From: "Login", Command: "enable", To: "Enable"},
			{From: "Enable", Command: "configure terminal", To: "Config"},
			{From: "Config", Command: "exit", To: "Enable", IsExit: true},
			{From: "Enable", Command: "exit", To: "Login", IsExit: true},
			{From: "Enable", Command: "switch {}", To: "VSiteEnable", NeedsFormat: true},
			{From: "VSiteEnable", Command: "configure terminal", To: "VSiteConfig"},
			{From: "VSiteConfig", Command: "exit", To: "VSiteEnable", IsExit: true},
			{From: "VSiteEnable", Command: "exit", To: "Enable", IsExit: true},
		},
	})
}
